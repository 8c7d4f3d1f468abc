// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/perception"
)

// Two-character operators come first so "<=" is not read as "<".
var expressionOps = []string{"==", "!=", "<=", ">=", "<", ">"}

// Expression is a comparison between a perception and a constant, written
// as "<key><op><value>", for example "forward==free", "battery_level<=20",
// "target!=none" or "position==3,4".
type Expression struct {
	Key   string
	Op    string
	Value string
}

// ParseExpression parses s into an Expression.
func ParseExpression(s string) (Expression, error) {
	for _, op := range expressionOps {
		i := strings.Index(s, op)
		if i < 0 {
			continue
		}
		key := strings.TrimSpace(s[:i])
		value := strings.TrimSpace(s[i+len(op):])
		if key == "" || value == "" {
			return Expression{}, fmt.Errorf("expression %q needs a key and a value", s)
		}
		return Expression{Key: key, Op: op, Value: value}, nil
	}
	return Expression{}, fmt.Errorf("%q is not an expression", s)
}

func (e Expression) String() string { return e.Key + e.Op + e.Value }

// Evaluate compares the snapshot value under e.Key with e.Value.
func (e Expression) Evaluate(snap perception.Snapshot) (bool, error) {
	raw, err := snap.Value(e.Key)
	if err != nil {
		return false, err
	}
	switch v := raw.(type) {
	case float64:
		return e.compareNumber(v)
	case int:
		return e.compareNumber(float64(v))
	case perception.Occupancy:
		return e.compareString(string(v))
	case string:
		return e.compareString(v)
	case nil:
		return e.comparePoint(nil)
	case *grid.Point:
		return e.comparePoint(v)
	case grid.Point:
		return e.comparePoint(&v)
	default:
		return false, e.invalid(fmt.Sprintf("cannot compare %T", raw))
	}
}

func (e Expression) compareNumber(v float64) (bool, error) {
	want, err := strconv.ParseFloat(e.Value, 64)
	if err != nil {
		return false, e.invalid("value is not a number")
	}
	switch e.Op {
	case "==":
		return v == want, nil
	case "!=":
		return v != want, nil
	case "<=":
		return v <= want, nil
	case ">=":
		return v >= want, nil
	case "<":
		return v < want, nil
	default:
		return v > want, nil
	}
}

func (e Expression) compareString(v string) (bool, error) {
	switch e.Op {
	case "==":
		return v == e.Value, nil
	case "!=":
		return v != e.Value, nil
	default:
		return false, e.invalid("ordered comparison on a string value")
	}
}

func (e Expression) comparePoint(v *grid.Point) (bool, error) {
	var want *grid.Point
	if !strings.EqualFold(e.Value, "none") {
		p, err := parsePoint(e.Value)
		if err != nil {
			return false, e.invalid(err.Error())
		}
		want = &p
	}
	equal := (v == nil && want == nil) || (v != nil && want != nil && *v == *want)
	switch e.Op {
	case "==":
		return equal, nil
	case "!=":
		return !equal, nil
	default:
		return false, e.invalid("ordered comparison on a point value")
	}
}

func (e Expression) invalid(reason string) error {
	return errors.New(errors.CodeInvalidInput, fmt.Sprintf("expression %q: %s", e.String(), reason), nil).
		WithContext("expression", e.String())
}

func parsePoint(s string) (grid.Point, error) {
	s = strings.Trim(s, "()")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return grid.Point{}, fmt.Errorf("point %q must be x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return grid.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return grid.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return grid.Pt(x, y), nil
}
