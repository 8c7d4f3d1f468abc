// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"

	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
)

// Validate checks value ranges and enumerations. All problems are reported
// together in one INVALID_INPUT error.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}
	probability := func(key string, p float64) {
		check(p >= 0 && p <= 1, "%s must be within [0,1], got %v", key, p)
	}

	check(oneOf(c.Log.Format, "text", "json"), "log.format must be text or json, got %q", c.Log.Format)
	check(oneOf(c.Log.Level, "debug", "info", "warn", "warning", "error"), "log.level %q is not a level", c.Log.Level)

	check(oneOf(c.Telemetry.Exporter, "none", "stdout", "otlp"), "telemetry.exporter must be none, stdout or otlp, got %q", c.Telemetry.Exporter)
	if strings.EqualFold(c.Telemetry.Exporter, "otlp") {
		check(c.Telemetry.OTLPEndpoint != "", "telemetry.otlp_endpoint is required for the otlp exporter")
	}
	check(c.Telemetry.OTLPTimeoutSeconds >= 0, "telemetry.otlp_timeout_seconds must not be negative")

	check(strings.TrimSpace(c.Sim.Goal) != "", "sim.goal must not be empty")
	check(c.Sim.MaxTicks >= 0, "sim.max_ticks must not be negative, got %d", c.Sim.MaxTicks)
	check(c.Sim.FallbackRules >= 0, "sim.fallback_rules must not be negative, got %d", c.Sim.FallbackRules)
	check(c.Sim.MaxDepth > 0, "sim.max_depth must be positive, got %d", c.Sim.MaxDepth)
	check(c.Sim.Speed > 0, "sim.speed must be positive, got %v", c.Sim.Speed)

	check(c.Robot.Battery <= 100, "robot.battery must not exceed 100, got %v", c.Robot.Battery)
	check(c.Robot.Height >= 0 && c.Robot.Width >= 0 && c.Robot.Weight >= 0, "robot dimensions and weight must not be negative")
	_, ok := grid.ParseDirection(c.Robot.Orientation)
	check(ok, "robot.orientation must be left, right, forward or backward, got %q", c.Robot.Orientation)

	probability("sensors.visibility", c.Sensors.Visibility)
	probability("sensors.blocked", c.Sensors.Blocked)
	check(c.Sensors.PositionSamples >= 0 && c.Sensors.CameraSamples >= 0, "sensor sample counts must not be negative")
	for i, s := range c.Sensors.Samplers {
		check(s.Name != "", "sensors.samplers[%d].name must not be empty", i)
		check(s.Samples >= 0, "sensors.samplers[%d].samples must not be negative", i)
	}

	for name, a := range map[string]ActuatorConfig{
		"motor":   c.Actuators.Motor,
		"servo":   c.Actuators.Servo,
		"gripper": c.Actuators.Gripper,
	} {
		check(a.EnergyCost >= 0, "actuators.%s.energy_cost must not be negative", name)
		check(a.MaxSpeed >= 0 && a.MaxTurningSpeed >= 0, "actuators.%s speeds must not be negative", name)
	}
	probability("actuators.gripper.grasp_success", c.Actuators.Gripper.GraspSuccess)

	check(oneOf(c.Journal.Driver, "none", "memory", "sqlite"), "journal.driver must be none, memory or sqlite, got %q", c.Journal.Driver)
	if strings.EqualFold(c.Journal.Driver, "sqlite") {
		check(c.Journal.DSN != "", "journal.dsn is required for the sqlite driver")
	}
	check(c.Journal.RetryAttempts >= 1, "journal.retry_attempts must be at least 1, got %d", c.Journal.RetryAttempts)
	check(c.Journal.RetryDelayMS >= 0, "journal.retry_delay_ms must not be negative, got %d", c.Journal.RetryDelayMS)

	if len(problems) == 0 {
		return nil
	}
	return errors.New(errors.CodeInvalidInput, "invalid configuration: "+strings.Join(problems, "; "), nil).
		WithContext("problems", problems)
}

func oneOf(v string, options ...string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
