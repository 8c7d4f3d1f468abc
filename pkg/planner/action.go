// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import "fmt"

// Well-known action identifiers besides the four grid directions.
const (
	ActionPickUp  = "pick_up"
	ActionPutDown = "put_down"
	ActionTrapped = "trapped"

	// NoAction is returned when no rule fires.
	NoAction = ""
)

// ActionKind tags what a rule's action refers to.
type ActionKind int

const (
	// KindLiteral actions name a concrete action identifier.
	KindLiteral ActionKind = iota
	// KindDelegate actions name a goal resolved through the Library.
	KindDelegate
	// KindCompute actions name a decision function in the Registry.
	KindCompute
)

func (k ActionKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindDelegate:
		return "delegate"
	case KindCompute:
		return "compute"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// ParseActionKind maps a kind name back to an ActionKind.
func ParseActionKind(s string) (ActionKind, bool) {
	switch s {
	case "literal":
		return KindLiteral, true
	case "delegate":
		return KindDelegate, true
	case "compute":
		return KindCompute, true
	default:
		return 0, false
	}
}

// Action is the right-hand side of a Rule.
type Action struct {
	Kind ActionKind
	Name string
}

// Literal returns an action that resolves to name itself.
func Literal(name string) Action { return Action{Kind: KindLiteral, Name: name} }

// Delegate returns an action that resolves the plan registered for goal.
func Delegate(goal string) Action { return Action{Kind: KindDelegate, Name: goal} }

// Compute returns an action that calls the named decision function.
func Compute(decision string) Action { return Action{Kind: KindCompute, Name: decision} }

func (a Action) String() string {
	return a.Kind.String() + ":" + a.Name
}
