// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package device provides the stochastic sensors and actuators a simulated
// rover is wired with. They report readings and energy costs; they never
// touch the robot's own state.
package device

import (
	"fmt"

	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/identity"
	"github.com/jllopis/rover/pkg/perception"
	"github.com/jllopis/rover/pkg/random"
)

// Sample values are drawn uniformly from [SampleMin, SampleMax).
const (
	SampleMin = 1.0
	SampleMax = 100.0
)

// Sensor is a generic sampling sensor.
type Sensor struct {
	id         int
	kind       string
	rangeM     float64
	maxSamples int
	available  bool
	rng        random.Source
}

// NewSensor creates a sensor of the given kind holding up to maxSamples readings.
func NewSensor(ids *identity.Allocator, rng random.Source, kind string, rangeM float64, maxSamples int) *Sensor {
	if maxSamples < 0 {
		maxSamples = 0
	}
	return &Sensor{
		id:         ids.Next(identity.KindSensor),
		kind:       kind,
		rangeM:     rangeM,
		maxSamples: maxSamples,
		available:  true,
		rng:        rng,
	}
}

func (s *Sensor) ID() int { return s.id }

// Name returns the sensor kind; it doubles as its perception key.
func (s *Sensor) Name() string { return s.kind }

func (s *Sensor) Range() float64 { return s.rangeM }

// Data returns n fresh readings.
func (s *Sensor) Data(n int) []float64 {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = random.Uniform(s.rng, SampleMin, SampleMax)
	}
	return out
}

// Samples returns a full buffer of readings.
func (s *Sensor) Samples() []float64 { return s.Data(s.maxSamples) }

// Available reports whether the sensor is usable.
func (s *Sensor) Available() bool { return s.available }

// Disable marks the sensor unavailable until Restore is called.
func (s *Sensor) Disable() { s.available = false }

// Restore makes the sensor available again.
func (s *Sensor) Restore() { s.available = true }

func (s *Sensor) String() string {
	return fmt.Sprintf("%s sensor %d (range %v)", s.kind, s.id, s.rangeM)
}

// PositionSensor tracks the rover position by dead reckoning.
type PositionSensor struct {
	*Sensor
	position grid.Point
}

// NewPositionSensor creates a position sensor starting at start.
func NewPositionSensor(base *Sensor, start grid.Point) *PositionSensor {
	return &PositionSensor{Sensor: base, position: start}
}

// Position returns the cached position.
func (p *PositionSensor) Position() grid.Point { return p.position }

// Update moves the cached position one cell in direction d.
func (p *PositionSensor) Update(d grid.Direction) {
	p.position = p.position.Step(d)
}

// Camera reports target visibility and the occupancy around the rover.
type Camera struct {
	*Sensor
	target      grid.Point
	visibility  float64
	blockedProb float64
}

// NewCamera creates a camera that sees target with probability visibility
// and reports each direction blocked with probability blocked.
func NewCamera(base *Sensor, target grid.Point, visibility, blocked float64) *Camera {
	return &Camera{Sensor: base, target: target, visibility: visibility, blockedProb: blocked}
}

// TargetVisible reports whether the target is in view this tick and where.
func (c *Camera) TargetVisible() (bool, *grid.Point) {
	if !random.Chance(c.rng, c.visibility) {
		return false, nil
	}
	t := c.target
	return true, &t
}

// DirectionsState samples the occupancy of all four neighbouring cells.
func (c *Camera) DirectionsState() map[grid.Direction]perception.Occupancy {
	out := make(map[grid.Direction]perception.Occupancy, len(grid.ScanOrder))
	for _, d := range grid.ScanOrder {
		if random.Chance(c.rng, c.blockedProb) {
			out[d] = perception.Blocked
		} else {
			out[d] = perception.Free
		}
	}
	return out
}
