// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package perception defines the per-tick view of the world the planner
// reads. A Snapshot is built once per tick and never modified afterwards.
package perception

import (
	"fmt"
	"sort"

	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
)

// Well-known snapshot keys. Direction occupancy uses the direction name.
const (
	KeyBattery  = "battery_level"
	KeyPosition = "position"
	KeyTarget   = "target"
)

// Occupancy describes whether a neighbouring cell can be entered.
type Occupancy string

const (
	Free    Occupancy = "free"
	Blocked Occupancy = "blocked"
)

// Snapshot maps perception keys to values for exactly one tick.
type Snapshot struct {
	values map[string]any
}

// Has reports whether key is present.
func (s Snapshot) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Value returns the raw value stored under key.
func (s Snapshot) Value(key string) (any, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, errors.MissingPerception(key)
	}
	return v, nil
}

// Keys returns the present keys in lexical order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Battery returns the battery percentage.
func (s Snapshot) Battery() (float64, error) {
	v, err := s.Value(KeyBattery)
	if err != nil {
		return 0, err
	}
	switch b := v.(type) {
	case float64:
		return b, nil
	case int:
		return float64(b), nil
	default:
		return 0, typeError(KeyBattery, "number", v)
	}
}

// Position returns the agent position.
func (s Snapshot) Position() (grid.Point, error) {
	v, err := s.Value(KeyPosition)
	if err != nil {
		return grid.Point{}, err
	}
	p, ok := v.(grid.Point)
	if !ok {
		return grid.Point{}, typeError(KeyPosition, "grid.Point", v)
	}
	return p, nil
}

// Target returns the target belief. A nil point with a nil error means the
// key is present and the target is still unknown.
func (s Snapshot) Target() (*grid.Point, error) {
	v, err := s.Value(KeyTarget)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *grid.Point:
		return t, nil
	case grid.Point:
		return &t, nil
	default:
		return nil, typeError(KeyTarget, "grid.Point", v)
	}
}

// Occupancy returns the occupancy of the cell in direction d.
func (s Snapshot) Occupancy(d grid.Direction) (Occupancy, error) {
	v, err := s.Value(string(d))
	if err != nil {
		return "", err
	}
	switch o := v.(type) {
	case Occupancy:
		return o, nil
	case string:
		return Occupancy(o), nil
	default:
		return "", typeError(string(d), "occupancy", v)
	}
}

// Samples returns the raw sample list recorded for a sensor.
func (s Snapshot) Samples(sensor string) ([]float64, error) {
	v, err := s.Value(sensor)
	if err != nil {
		return nil, err
	}
	samples, ok := v.([]float64)
	if !ok {
		return nil, typeError(sensor, "[]float64", v)
	}
	return samples, nil
}

func typeError(key, want string, got any) error {
	return errors.New(errors.CodeInvalidInput, fmt.Sprintf("perception %q is not a %s", key, want), nil).
		WithContext("key", key).
		WithContext("type", fmt.Sprintf("%T", got))
}

// Builder accumulates values for a Snapshot.
type Builder struct {
	values map[string]any
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]any)}
}

// Set stores an arbitrary value.
func (b *Builder) Set(key string, value any) *Builder {
	b.values[key] = value
	return b
}

func (b *Builder) Battery(level float64) *Builder { return b.Set(KeyBattery, level) }

func (b *Builder) Position(p grid.Point) *Builder { return b.Set(KeyPosition, p) }

// Target stores the target belief; nil records an unknown target.
func (b *Builder) Target(p *grid.Point) *Builder {
	if p == nil {
		return b.Set(KeyTarget, nil)
	}
	cp := *p
	return b.Set(KeyTarget, &cp)
}

func (b *Builder) Occupancy(d grid.Direction, o Occupancy) *Builder {
	return b.Set(string(d), o)
}

// Samples stores a copy of a sensor's raw sample list.
func (b *Builder) Samples(sensor string, samples []float64) *Builder {
	return b.Set(sensor, append([]float64(nil), samples...))
}

// Build returns a Snapshot detached from the builder.
func (b *Builder) Build() Snapshot {
	values := make(map[string]any, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}
	return Snapshot{values: values}
}
