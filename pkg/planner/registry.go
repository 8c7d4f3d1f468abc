// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"fmt"
	"sort"

	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/perception"
)

// Condition is a predicate over one tick's perceptions.
// It must return a MISSING_PERCEPTION error instead of false when a key it
// reads is absent.
type Condition func(perception.Snapshot) (bool, error)

// Decision computes an action identifier from one tick's perceptions.
type Decision func(perception.Snapshot) (string, error)

// Registry holds the named conditions and decisions rules refer to.
// Condition names that are not registered are tried as expressions
// (see ParseExpression) and cached once parsed.
type Registry struct {
	conditions map[string]Condition
	decisions  map[string]Decision
	exprs      map[string]Condition
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conditions: make(map[string]Condition),
		decisions:  make(map[string]Decision),
		exprs:      make(map[string]Condition),
	}
}

// NewDefaultRegistry returns a Registry holding the built-in conditions and
// decisions.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterCondition(CondAlways, Always)
	r.RegisterCondition(CondBatteryNonzero, BatteryNonzero)
	r.RegisterCondition(CondTargetKnown, TargetKnown)
	r.RegisterCondition(CondTargetReached, TargetReached)
	r.RegisterDecision(DecisionChooseDir, ChooseDir)
	r.RegisterDecision(DecisionChooseBestDir, ChooseBestDir)
	return r
}

// RegisterCondition inserts or replaces a named condition.
func (r *Registry) RegisterCondition(name string, c Condition) {
	r.conditions[name] = c
	delete(r.exprs, name)
}

// RegisterDecision inserts or replaces a named decision.
func (r *Registry) RegisterDecision(name string, d Decision) {
	r.decisions[name] = d
}

// Condition returns the condition registered as name, or the parsed
// expression when name is one.
func (r *Registry) Condition(name string) (Condition, error) {
	if c, ok := r.conditions[name]; ok {
		return c, nil
	}
	if c, ok := r.exprs[name]; ok {
		return c, nil
	}
	expr, err := ParseExpression(name)
	if err != nil {
		return nil, errors.New(errors.CodeUnknownCondition, fmt.Sprintf("condition %q is not registered", name), err).
			WithContext("condition", name)
	}
	c := expr.Evaluate
	r.exprs[name] = c
	return c, nil
}

// Decision returns the decision registered as name.
func (r *Registry) Decision(name string) (Decision, error) {
	d, ok := r.decisions[name]
	if !ok {
		return nil, errors.New(errors.CodeUnknownDecision, fmt.Sprintf("decision %q is not registered", name), nil).
			WithContext("decision", name)
	}
	return d, nil
}

// HasDecision reports whether name is a registered decision.
func (r *Registry) HasDecision(name string) bool {
	_, ok := r.decisions[name]
	return ok
}

// ConditionNames lists the registered condition names.
func (r *Registry) ConditionNames() []string {
	return sortedKeys(r.conditions)
}

// DecisionNames lists the registered decision names.
func (r *Registry) DecisionNames() []string {
	return sortedKeys(r.decisions)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
