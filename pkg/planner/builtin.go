// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

// Built-in goal names.
const (
	GoalWonder = "wonder"
	GoalGo     = "go"
	GoalSearch = "search"
)

// DefaultPlans returns the built-in plans keyed by goal.
func DefaultPlans() map[string]Plan {
	return map[string]Plan{
		GoalWonder: {
			When(CondBatteryNonzero, Compute(DecisionChooseDir)),
		},
		GoalGo: {
			When(CondBatteryNonzero, Compute(DecisionChooseBestDir)),
		},
		GoalSearch: {
			When(CondTargetReached, Literal(ActionPickUp)),
			When(CondTargetKnown, Delegate(GoalGo)),
			When(CondBatteryNonzero, Delegate(GoalWonder)),
		},
	}
}

// DefaultLibrary returns a Library holding the built-in plans.
func DefaultLibrary() *Library {
	l := NewLibrary()
	for goal, plan := range DefaultPlans() {
		l.Register(goal, plan)
	}
	return l
}

// DefaultRulePool is the goal-agnostic pool fallback plans draw from.
func DefaultRulePool() []Rule {
	return []Rule{
		When(CondTargetKnown, Delegate(GoalGo)),
		When(CondBatteryNonzero, Delegate(GoalWonder)),
	}
}
