// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"log/slog"

	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/identity"
	"github.com/jllopis/rover/pkg/random"
)

// ActuatorSpec describes an actuator's limits and per-use energy cost.
type ActuatorSpec struct {
	Kind            string
	MaxSpeed        float64
	MaxTurningSpeed float64
	EnergyCost      float64
	// GraspSuccess is the probability a pick up succeeds.
	GraspSuccess float64
}

// Actuator drives, turns and grasps. Every operation returns the energy it
// consumed; speeds above the ActuatorSpec maxima are clamped.
type Actuator struct {
	id           int
	spec         ActuatorSpec
	speed        float64
	turningSpeed float64
	holding      string
	rng          random.Source
	logger       *slog.Logger
}

// NewActuator creates an actuator from spec.
func NewActuator(ids *identity.Allocator, rng random.Source, spec ActuatorSpec, logger *slog.Logger) *Actuator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actuator{
		id:     ids.Next(identity.KindActuator),
		spec:   spec,
		rng:    rng,
		logger: logger.With(slog.String("actuator", spec.Kind)),
	}
}

func (a *Actuator) ID() int { return a.id }

func (a *Actuator) Kind() string { return a.spec.Kind }

// Speed returns the last commanded forward speed after clamping.
func (a *Actuator) Speed() float64 { return a.speed }

// TurningSpeed returns the last commanded turning speed after clamping.
func (a *Actuator) TurningSpeed() float64 { return a.turningSpeed }

// MoveForward drives at speed and returns the energy cost.
func (a *Actuator) MoveForward(speed float64) float64 {
	a.speed = min(speed, a.spec.MaxSpeed)
	a.logger.Debug("moving forward", slog.Float64("speed", a.speed))
	return a.spec.EnergyCost
}

// Turn rotates to face d at speed and returns the energy cost.
func (a *Actuator) Turn(d grid.Direction, speed float64) float64 {
	a.turningSpeed = min(speed, a.spec.MaxTurningSpeed)
	a.logger.Debug("turning", slog.String("direction", string(d)), slog.Float64("speed", a.turningSpeed))
	return a.spec.EnergyCost
}

// PickUp tries to grasp object. Energy is spent whether or not it succeeds.
func (a *Actuator) PickUp(object string) (bool, float64) {
	ok := random.Chance(a.rng, a.spec.GraspSuccess)
	if ok {
		a.holding = object
		a.logger.Debug("picked up", slog.String("object", object))
	} else {
		a.logger.Debug("pick up failed", slog.String("object", object))
	}
	return ok, a.spec.EnergyCost
}

// PutDown releases the held object. With nothing held it costs nothing.
func (a *Actuator) PutDown() float64 {
	if a.holding == "" {
		a.logger.Debug("nothing to put down")
		return 0
	}
	a.logger.Debug("put down", slog.String("object", a.holding))
	a.holding = ""
	return a.spec.EnergyCost
}

// HeldObject returns the held object, if any.
func (a *Actuator) HeldObject() (string, bool) {
	return a.holding, a.holding != ""
}
