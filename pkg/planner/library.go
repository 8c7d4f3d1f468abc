// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import "sort"

// Rule pairs a named condition with the action taken when it holds.
type Rule struct {
	When string
	Then Action
}

// When builds a Rule.
func When(condition string, then Action) Rule {
	return Rule{When: condition, Then: then}
}

// Plan is an ordered rule list. Index 0 has the highest priority.
type Plan []Rule

// Clone returns a copy of p.
func (p Plan) Clone() Plan {
	if p == nil {
		return nil
	}
	return append(Plan(nil), p...)
}

// Library maps goal names to plans.
//
// Plans are never removed. Register performs no validation: a rule naming an
// unknown condition or decision only fails when it is evaluated.
type Library struct {
	plans map[string]Plan
}

// NewLibrary returns an empty Library.
func NewLibrary() *Library {
	return &Library{plans: make(map[string]Plan)}
}

// Register inserts or replaces the plan for goal.
func (l *Library) Register(goal string, plan Plan) {
	l.plans[goal] = plan.Clone()
}

// Lookup returns the plan registered for goal. Matching is exact.
func (l *Library) Lookup(goal string) (Plan, bool) {
	plan, ok := l.plans[goal]
	if !ok {
		return nil, false
	}
	return plan.Clone(), true
}

// Has reports whether goal is registered.
func (l *Library) Has(goal string) bool {
	_, ok := l.plans[goal]
	return ok
}

// Goals returns the registered goal names in lexical order.
func (l *Library) Goals() []string {
	goals := make([]string, 0, len(l.plans))
	for goal := range l.plans {
		goals = append(goals, goal)
	}
	sort.Strings(goals)
	return goals
}

// Len returns the number of registered goals.
func (l *Library) Len() int { return len(l.plans) }

// Plans returns a copy of every registered plan keyed by goal.
func (l *Library) Plans() map[string]Plan {
	out := make(map[string]Plan, len(l.plans))
	for goal, plan := range l.plans {
		out[goal] = plan.Clone()
	}
	return out
}
