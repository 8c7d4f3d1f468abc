// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package device

import "github.com/jllopis/rover/pkg/grid"

// Camera defaults.
const (
	DefaultVisibility  = 0.1
	DefaultBlockedProb = 0.2
)

// DefaultTarget is where the camera places the target object.
var DefaultTarget = grid.Pt(25, 20)

// Default actuator specs: max speed, max turning speed and energy per use.
var (
	MotorSpec   = ActuatorSpec{Kind: "motor", MaxSpeed: 10, MaxTurningSpeed: 2, EnergyCost: 1.0}
	GripperSpec = ActuatorSpec{Kind: "gripper", MaxSpeed: 2, MaxTurningSpeed: 1, EnergyCost: 0.2, GraspSuccess: 0.5}
	ServoSpec   = ActuatorSpec{Kind: "servo", MaxSpeed: 3, MaxTurningSpeed: 3, EnergyCost: 0.5}
)
