// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package robot holds the agent's own state: identity, physical descriptors,
// orientation, target belief and battery.
package robot

import (
	"errors"
	"fmt"

	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/identity"
)

// FullBattery is the battery percentage of a charged robot.
const FullBattery = 100.0

// Dimensions is the robot footprint.
type Dimensions struct {
	Height float64
	Width  float64
}

// Robot is the simulated agent. Only the control loop mutates it.
type Robot struct {
	id          int
	name        string
	dimensions  Dimensions
	weight      float64
	orientation grid.Direction
	target      *grid.Point
	battery     float64
}

// Option configures a Robot.
type Option func(*Robot) error

// New creates a robot named name with an id issued by ids.
// The robot starts facing forward with a full battery and no target belief.
func New(ids *identity.Allocator, name string, opts ...Option) (*Robot, error) {
	if ids == nil {
		return nil, errors.New("identity allocator is required")
	}
	if name == "" {
		return nil, errors.New("robot name is required")
	}
	r := &Robot{
		name:        name,
		orientation: grid.Forward,
		battery:     FullBattery,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.id = ids.Next(identity.KindRobot)
	return r, nil
}

// WithDimensions sets height and width.
func WithDimensions(height, width float64) Option {
	return func(r *Robot) error {
		if height < 0 || width < 0 {
			return fmt.Errorf("dimensions must not be negative: %vx%v", height, width)
		}
		r.dimensions = Dimensions{Height: height, Width: width}
		return nil
	}
}

// WithWeight sets the weight.
func WithWeight(weight float64) Option {
	return func(r *Robot) error {
		if weight < 0 {
			return fmt.Errorf("weight must not be negative: %v", weight)
		}
		r.weight = weight
		return nil
	}
}

// WithOrientation sets the initial orientation.
func WithOrientation(d grid.Direction) Option {
	return func(r *Robot) error {
		if !d.Valid() {
			return fmt.Errorf("invalid orientation %q", d)
		}
		r.orientation = d
		return nil
	}
}

// WithBattery sets the initial battery percentage, capped at FullBattery.
func WithBattery(level float64) Option {
	return func(r *Robot) error {
		if level > FullBattery {
			level = FullBattery
		}
		r.battery = level
		return nil
	}
}

func (r *Robot) ID() int { return r.id }

func (r *Robot) Name() string { return r.name }

func (r *Robot) Dimensions() Dimensions { return r.dimensions }

func (r *Robot) Weight() float64 { return r.weight }

// Orientation returns the direction the robot faces.
func (r *Robot) Orientation() grid.Direction { return r.orientation }

// SetOrientation turns the robot to face d.
func (r *Robot) SetOrientation(d grid.Direction) { r.orientation = d }

// Target returns a copy of the target belief, nil while unknown.
func (r *Robot) Target() *grid.Point {
	if r.target == nil {
		return nil
	}
	t := *r.target
	return &t
}

// ObserveTarget updates the target belief from a camera reading. A reading
// without a visible target leaves the previous belief in place.
func (r *Robot) ObserveTarget(visible bool, at *grid.Point) {
	if !visible || at == nil {
		return
	}
	t := *at
	r.target = &t
}

// Battery returns the battery percentage. It may be negative after an
// action that cost more than what was left.
func (r *Robot) Battery() float64 { return r.battery }

// SetBatteryLevel sets the battery percentage without clamping.
func (r *Robot) SetBatteryLevel(level float64) { r.battery = level }

// Debit subtracts energy from the battery and returns the new level.
func (r *Robot) Debit(energy float64) float64 {
	r.battery -= energy
	return r.battery
}

// ReloadBattery recharges to FullBattery.
func (r *Robot) ReloadBattery() { r.battery = FullBattery }

func (r *Robot) String() string {
	return fmt.Sprintf("robot %s (id %d, %vx%v, %v kg, battery %.1f%%)",
		r.name, r.id, r.dimensions.Height, r.dimensions.Width, r.weight, r.battery)
}
