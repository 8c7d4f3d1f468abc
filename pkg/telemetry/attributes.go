// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration and slog setup for
// rover simulations.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/jllopis/rover/pkg/grid"
)

// Attribute keys for rover spans, metrics and log records.
const (
	// Run attributes
	AttrRunID     = "rover.run.id"
	AttrRunStatus = "rover.run.status"
	AttrRunTicks  = "rover.run.ticks"

	// Robot attributes
	AttrRobotID          = "rover.robot.id"
	AttrRobotName        = "rover.robot.name"
	AttrRobotBattery     = "rover.robot.battery"
	AttrRobotOrientation = "rover.robot.orientation"
	AttrRobotX           = "rover.robot.x"
	AttrRobotY           = "rover.robot.y"

	// Tick attributes
	AttrTick     = "rover.tick"
	AttrGoal     = "rover.goal"
	AttrAction   = "rover.action"
	AttrDispatch = "rover.dispatch"
	AttrEnergy   = "rover.energy"

	// Error attributes
	AttrErrorCode = "rover.error.code"
)

// RobotAttributes returns attributes describing a robot.
func RobotAttributes(id int, name string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrRobotID, id),
	}
	if name != "" {
		attrs = append(attrs, attribute.String(AttrRobotName, name))
	}
	return attrs
}

// TickAttributes returns attributes for a tick span before the action is known.
func TickAttributes(runID string, tick int, goal string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrTick, tick),
		attribute.String(AttrGoal, goal),
	}
	if runID != "" {
		attrs = append(attrs, attribute.String(AttrRunID, runID))
	}
	return attrs
}

// OutcomeAttributes returns attributes describing what a tick did.
// An empty action is reported as "none".
func OutcomeAttributes(action, dispatch string, energy, battery float64, pos grid.Point, orientation grid.Direction) []attribute.KeyValue {
	if action == "" {
		action = "none"
	}
	return []attribute.KeyValue{
		attribute.String(AttrAction, action),
		attribute.String(AttrDispatch, dispatch),
		attribute.Float64(AttrEnergy, energy),
		attribute.Float64(AttrRobotBattery, battery),
		attribute.Int(AttrRobotX, pos.X),
		attribute.Int(AttrRobotY, pos.Y),
		attribute.String(AttrRobotOrientation, string(orientation)),
	}
}

// RunAttributes returns attributes for a finished run.
func RunAttributes(runID, status string, ticks int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrRunStatus, status),
		attribute.Int(AttrRunTicks, ticks),
	}
}
