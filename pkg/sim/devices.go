// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/perception"
)

// PositionSensor reports the rover position and advances it after a move.
type PositionSensor interface {
	Position() grid.Point
	Update(d grid.Direction)
}

// Camera reports target visibility and the occupancy of neighbouring cells.
type Camera interface {
	TargetVisible() (bool, *grid.Point)
	DirectionsState() map[grid.Direction]perception.Occupancy
}

// Sampler is any sensor that contributes raw samples to the snapshot.
type Sampler interface {
	Name() string
	Samples() []float64
}

// Mover drives the rover forward.
type Mover interface {
	MoveForward(speed float64) float64
}

// Turner changes the rover orientation.
type Turner interface {
	Turn(d grid.Direction, speed float64) float64
}

// Grasper picks up and releases objects.
type Grasper interface {
	PickUp(object string) (bool, float64)
	PutDown() float64
}

// Devices groups the collaborators a simulation senses and acts through.
type Devices struct {
	Position PositionSensor
	Camera   Camera
	Samplers []Sampler
	Motor    Mover
	Servo    Turner
	Gripper  Grasper
}

// Validate checks every required collaborator is present.
func (d Devices) Validate() error {
	missing := ""
	switch {
	case d.Position == nil:
		missing = "position sensor"
	case d.Camera == nil:
		missing = "camera"
	case d.Motor == nil:
		missing = "motor"
	case d.Servo == nil:
		missing = "servo"
	case d.Gripper == nil:
		missing = "gripper"
	}
	if missing != "" {
		return errors.New(errors.CodeInvalidInput, missing+" is required", nil).
			WithContext("device", missing)
	}
	return nil
}
