// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads rover settings from defaults, a YAML file, ROVER_
// environment variables and --set overrides, in that order of precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/jllopis/rover/pkg/errors"
)

// EnvPrefix prefixes environment overrides: ROVER_SIM_MAX_TICKS -> sim.max_ticks.
const EnvPrefix = "ROVER_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Sim       SimConfig       `koanf:"sim"`
	Robot     RobotConfig     `koanf:"robot"`
	Sensors   SensorsConfig   `koanf:"sensors"`
	Actuators ActuatorsConfig `koanf:"actuators"`
	Plans     PlansConfig     `koanf:"plans"`
	Journal   JournalConfig   `koanf:"journal"`

	k *koanf.Koanf
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter           string `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint       string `koanf:"otlp_endpoint"`
	OTLPInsecure       bool   `koanf:"otlp_insecure"`
	OTLPTimeoutSeconds int    `koanf:"otlp_timeout_seconds"`
}

type SimConfig struct {
	Goal          string  `koanf:"goal"`
	Seed          uint64  `koanf:"seed"` // 0 seeds from the clock
	MaxTicks      int     `koanf:"max_ticks"`
	FallbackRules int     `koanf:"fallback_rules"`
	MaxDepth      int     `koanf:"max_depth"`
	Speed         float64 `koanf:"speed"`
	Object        string  `koanf:"object"`
}

type RobotConfig struct {
	Name        string  `koanf:"name"`
	Height      float64 `koanf:"height"`
	Width       float64 `koanf:"width"`
	Weight      float64 `koanf:"weight"`
	Battery     float64 `koanf:"battery"`
	Orientation string  `koanf:"orientation"`
}

// SensorsConfig places the rover and the target and tunes the camera.
type SensorsConfig struct {
	StartX          int             `koanf:"start_x"`
	StartY          int             `koanf:"start_y"`
	TargetX         int             `koanf:"target_x"`
	TargetY         int             `koanf:"target_y"`
	Visibility      float64         `koanf:"visibility"`
	Blocked         float64         `koanf:"blocked"`
	PositionSamples int             `koanf:"position_samples"`
	CameraSamples   int             `koanf:"camera_samples"`
	Samplers        []SamplerConfig `koanf:"samplers"`
}

// SamplerConfig declares an extra sensor whose samples join every snapshot.
type SamplerConfig struct {
	Name    string  `koanf:"name"`
	Range   float64 `koanf:"range"`
	Samples int     `koanf:"samples"`
}

type ActuatorsConfig struct {
	Motor   ActuatorConfig `koanf:"motor"`
	Servo   ActuatorConfig `koanf:"servo"`
	Gripper ActuatorConfig `koanf:"gripper"`
}

type ActuatorConfig struct {
	MaxSpeed        float64 `koanf:"max_speed"`
	MaxTurningSpeed float64 `koanf:"max_turning_speed"`
	EnergyCost      float64 `koanf:"energy_cost"`
	GraspSuccess    float64 `koanf:"grasp_success"`
}

// PlansConfig points at an optional plan document merged over the built-in library.
type PlansConfig struct {
	Path string `koanf:"path"`
}

// JournalConfig selects where tick events go. Retries apply to sqlite writes.
type JournalConfig struct {
	Driver        string `koanf:"driver"` // none, memory, sqlite
	DSN           string `koanf:"dsn"`
	RetryAttempts int    `koanf:"retry_attempts"`
	RetryDelayMS  int    `koanf:"retry_delay_ms"`
}

// Defaults returns the default value of every key.
func Defaults() map[string]any {
	return map[string]any{
		"log.level":  "info",
		"log.format": "text",

		"telemetry.exporter":             "none",
		"telemetry.otlp_endpoint":        "",
		"telemetry.otlp_insecure":        true,
		"telemetry.otlp_timeout_seconds": 10,

		"sim.goal":           "search",
		"sim.seed":           0,
		"sim.max_ticks":      0,
		"sim.fallback_rules": 2,
		"sim.max_depth":      64,
		"sim.speed":          1.0,
		"sim.object":         "water",

		"robot.name":        "WaterFinder",
		"robot.height":      1.5,
		"robot.width":       0.3,
		"robot.weight":      20.0,
		"robot.battery":     100.0,
		"robot.orientation": "forward",

		"sensors.start_x":          0,
		"sensors.start_y":          0,
		"sensors.target_x":         25,
		"sensors.target_y":         20,
		"sensors.visibility":       0.1,
		"sensors.blocked":          0.2,
		"sensors.position_samples": 10,
		"sensors.camera_samples":   1,
		"sensors.samplers": []map[string]any{
			{"name": "ultra_sound", "range": 100.0, "samples": 10},
			{"name": "temperature", "range": 10.0, "samples": 5},
		},

		"actuators.motor.max_speed":           10.0,
		"actuators.motor.max_turning_speed":   2.0,
		"actuators.motor.energy_cost":         1.0,
		"actuators.servo.max_speed":           3.0,
		"actuators.servo.max_turning_speed":   3.0,
		"actuators.servo.energy_cost":         0.5,
		"actuators.gripper.max_speed":         2.0,
		"actuators.gripper.max_turning_speed": 1.0,
		"actuators.gripper.energy_cost":       0.2,
		"actuators.gripper.grasp_success":     0.5,

		"plans.path": "",

		"journal.driver":         "memory",
		"journal.dsn":            "",
		"journal.retry_attempts": 3,
		"journal.retry_delay_ms": 20,
	}
}

// Load reads defaults, the YAML file at path (optional) and ROVER_ env vars.
func Load(path string) (*Config, error) {
	return LoadWithProfile(path, "")
}

// LoadWithProfile is Load plus a profile file next to path
// (config.yaml + "dev" -> config.dev.yaml) merged over it when present.
func LoadWithProfile(path, profile string) (*Config, error) {
	return load(cliArgs{configPath: path, profile: profile}, nil)
}

// LoadWithCLI loads configuration honouring --config, --profile (alias --env)
// and repeated --set key=value flags. Other arguments are ignored.
func LoadWithCLI(args []string) (*Config, error) {
	cli, overrides, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	return load(cli, overrides)
}

type cliArgs struct {
	configPath string
	profile    string
}

func load(cli cliArgs, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, errors.New(errors.CodeInternal, "set default", err).WithContext("key", key)
		}
	}

	// 1. Load from file, then the profile file
	if cli.configPath != "" {
		if err := k.Load(file.Provider(cli.configPath), yaml.Parser()); err != nil {
			return nil, errors.New(errors.CodeInvalidInput, "load config file", err).WithContext("path", cli.configPath)
		}
		if p := profileConfigPath(cli.configPath, cli.profile); p != "" {
			if err := k.Load(file.Provider(p), yaml.Parser()); err != nil {
				return nil, errors.New(errors.CodeInvalidInput, "load profile file", err).WithContext("path", p)
			}
		}
	}

	// 2. Load from ENV (ROVER_SIM_MAX_TICKS -> sim.max_ticks)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "load environment", err)
	}

	// 3. --set overrides
	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, errors.New(errors.CodeInvalidInput, "apply override", err).WithContext("key", key)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "decode config", err)
	}
	cfg.k = k
	return &cfg, nil
}

// envKey maps ROVER_SECTION_SOME_KEY to section.some_key. Only the first
// underscore separates the section, so snake_case keys survive.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// profileConfigPath returns the profile file for base, or "" when it does not exist.
func profileConfigPath(base, profile string) string {
	if base == "" || profile == "" {
		return ""
	}
	ext := filepath.Ext(base)
	p := strings.TrimSuffix(base, ext) + "." + profile + ext
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func parseCLIOverrides(args []string) (cliArgs, map[string]any, error) {
	var cli cliArgs
	overrides := make(map[string]any)

	value := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", errors.New(errors.CodeInvalidInput, name+" requires a value", nil)
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")
		switch name {
		case "--config", "--profile", "--env", "--set":
		default:
			continue
		}
		v := inline
		if !hasInline {
			var err error
			if v, err = value(i, name); err != nil {
				return cli, nil, err
			}
			i++
		}
		switch name {
		case "--config":
			cli.configPath = v
		case "--profile", "--env":
			cli.profile = v
		case "--set":
			key, raw, ok := strings.Cut(v, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return cli, nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("--set expects key=value, got %q", v), nil)
			}
			overrides[key] = parseValue(raw)
		}
	}
	return cli, overrides, nil
}

// parseValue decodes a --set value as YAML so numbers, booleans, lists and
// maps keep their type; anything that does not decode stays a string.
func parseValue(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	var v any
	if err := yamlv3.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	return v
}

// Marshal renders the effective configuration as "yaml" or "json".
func (c *Config) Marshal(format string) ([]byte, error) {
	if c.k == nil {
		return nil, errors.New(errors.CodeInternal, "config was not loaded", nil)
	}
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return c.k.Marshal(yaml.Parser())
	case "json":
		return json.MarshalIndent(c.k.Raw(), "", "  ")
	default:
		return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("unknown format %q", format), nil)
	}
}
