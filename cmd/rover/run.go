// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jllopis/rover/pkg/config"
	"github.com/jllopis/rover/pkg/device"
	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/identity"
	"github.com/jllopis/rover/pkg/planner"
	"github.com/jllopis/rover/pkg/random"
	"github.com/jllopis/rover/pkg/resilience"
	"github.com/jllopis/rover/pkg/robot"
	"github.com/jllopis/rover/pkg/sim"
	"github.com/jllopis/rover/pkg/telemetry"
)

type runResult struct {
	RunID    string          `json:"run_id"`
	Goal     string          `json:"goal"`
	Status   sim.Status      `json:"status"`
	Ticks    int             `json:"ticks"`
	Position grid.Point      `json:"position"`
	Target   *grid.Point     `json:"target"`
	Found    bool            `json:"found"`
	Trapped  bool            `json:"trapped"`
	Battery  float64         `json:"battery"`
	Trace    []sim.TickEvent `json:"trace,omitempty"`
}

// composition holds everything one run needs. close releases the journal.
type composition struct {
	sim     *sim.Simulation
	journal sim.Journal
	close   func() error
}

func runRun(ctx context.Context, global globalFlags, args []string) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	goal := fs.String("goal", "", "Goal to pursue (overrides sim.goal)")
	seed := fs.String("seed", "", "Random seed, 0 seeds from the clock (overrides sim.seed)")
	maxTicks := fs.String("max-ticks", "", "Stop after N ticks, 0 is unlimited (overrides sim.max_ticks)")
	plansPath := fs.String("plans", "", "Plan document merged over the built-in plans (overrides plans.path)")
	trace := fs.Bool("trace", false, "Print every journaled tick")
	if err := fs.Parse(args); err != nil {
		fatal(NewInvalidArgumentError("run", err.Error()), global.JSON)
	}
	ensureNoArgs(fs.Args(), global.JSON)

	configArgs := append([]string(nil), global.ConfigArgs...)
	for key, value := range map[string]string{
		"sim.goal":      *goal,
		"sim.seed":      *seed,
		"sim.max_ticks": *maxTicks,
		"plans.path":    *plansPath,
	} {
		if value != "" {
			configArgs = append(configArgs, "--set", key+"="+value)
		}
	}

	cfg := loadConfig(configArgs, global.JSON)
	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, runID := identity.EnsureRunID(ctx)
	shutdown, err := telemetry.InitWithConfig("rover", version, telemetry.Config{
		Exporter:           cfg.Telemetry.Exporter,
		OTLPEndpoint:       cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:       cfg.Telemetry.OTLPInsecure,
		OTLPTimeoutSeconds: cfg.Telemetry.OTLPTimeoutSeconds,
		Attributes: []attribute.KeyValue{
			attribute.String(telemetry.AttrRunID, runID),
			attribute.String(telemetry.AttrRobotName, cfg.Robot.Name),
		},
	})
	if err != nil {
		fatal(NewConfigError(err, ""), global.JSON)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	comp, err := buildSimulation(cfg, runID, logger)
	if err != nil {
		fatal(asCLIError(err, cfg.Plans.Path), global.JSON)
	}
	defer func() {
		if err := comp.close(); err != nil {
			logger.Warn("journal close", slog.String("error", err.Error()))
		}
	}()

	report, err := comp.sim.Run(ctx)
	if err != nil {
		fatal(NewRunError(err), global.JSON)
	}

	result := newRunResult(comp.sim.Goal(), report)
	if *trace && comp.journal != nil {
		events, err := comp.journal.List(ctx, sim.JournalFilter{RunID: runID})
		if err != nil {
			fatal(errors.New(errors.CodeInternal, "read journal", err), global.JSON)
		}
		result.Trace = events
	}

	if global.JSON {
		printJSON(os.Stdout, result)
		return
	}
	printRunResult(os.Stdout, result, cfg.Sim.Object)
}

func loadConfig(args []string, asJSON bool) *config.Config {
	cfg, err := config.LoadWithCLI(args)
	if err != nil {
		fatal(NewConfigError(err, findConfigPath(args)), asJSON)
	}
	if err := cfg.Validate(); err != nil {
		fatal(NewConfigError(err, findConfigPath(args)), asJSON)
	}
	return cfg
}

func asCLIError(err error, plansPath string) *CLIError {
	if cliErr, ok := err.(*CLIError); ok {
		return cliErr
	}
	if plansPath != "" {
		switch errors.CodeOf(err) {
		case errors.CodeInvalidInput, errors.CodeNotFound:
			return NewPlanError(err, plansPath)
		}
	}
	return NewCLIError(errors.AsRoverError(err), "")
}

// buildSimulation is the composition root: it owns the identity allocator
// and the random source and hands them to every component it creates.
func buildSimulation(cfg *config.Config, runID string, logger *slog.Logger) (*composition, error) {
	ids := identity.NewAllocator()
	rng := random.NewPCG(cfg.Sim.Seed)

	orientation, ok := grid.ParseDirection(cfg.Robot.Orientation)
	if !ok {
		return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("unknown orientation %q", cfg.Robot.Orientation), nil)
	}
	r, err := robot.New(ids, cfg.Robot.Name,
		robot.WithDimensions(cfg.Robot.Height, cfg.Robot.Width),
		robot.WithWeight(cfg.Robot.Weight),
		robot.WithOrientation(orientation),
		robot.WithBattery(cfg.Robot.Battery),
	)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "build robot", err)
	}

	position := device.NewPositionSensor(
		device.NewSensor(ids, rng, "position", 1.0, cfg.Sensors.PositionSamples),
		grid.Pt(cfg.Sensors.StartX, cfg.Sensors.StartY),
	)
	camera := device.NewCamera(
		device.NewSensor(ids, rng, "camera", 0, cfg.Sensors.CameraSamples),
		grid.Pt(cfg.Sensors.TargetX, cfg.Sensors.TargetY),
		cfg.Sensors.Visibility,
		cfg.Sensors.Blocked,
	)
	samplers := []sim.Sampler{position, camera}
	for _, s := range cfg.Sensors.Samplers {
		samplers = append(samplers, device.NewSensor(ids, rng, s.Name, s.Range, s.Samples))
	}
	devices := sim.Devices{
		Position: position,
		Camera:   camera,
		Samplers: samplers,
		Motor:    device.NewActuator(ids, rng, actuatorSpec("motor", cfg.Actuators.Motor), logger),
		Servo:    device.NewActuator(ids, rng, actuatorSpec("servo", cfg.Actuators.Servo), logger),
		Gripper:  device.NewActuator(ids, rng, actuatorSpec("gripper", cfg.Actuators.Gripper), logger),
	}

	library, registry, err := loadLibrary(cfg.Plans.Path)
	if err != nil {
		return nil, err
	}
	resolver := planner.NewResolver(library,
		planner.WithRegistry(registry),
		planner.WithRandom(rng),
		planner.WithFallbackSize(cfg.Sim.FallbackRules),
		planner.WithMaxDepth(cfg.Sim.MaxDepth),
		planner.WithLogger(logger),
	)

	journal, closeJournal, err := openJournal(cfg.Journal)
	if err != nil {
		return nil, err
	}
	metrics, err := telemetry.NewSimMetrics()
	if err != nil {
		_ = closeJournal()
		return nil, errors.New(errors.CodeInternal, "create metrics", err)
	}

	s, err := sim.New(r, resolver, devices,
		sim.WithGoal(cfg.Sim.Goal),
		sim.WithSpeed(cfg.Sim.Speed),
		sim.WithObject(cfg.Sim.Object),
		sim.WithMaxTicks(cfg.Sim.MaxTicks),
		sim.WithJournal(journal),
		sim.WithMetrics(metrics),
		sim.WithLogger(logger),
		sim.WithRunID(runID),
	)
	if err != nil {
		_ = closeJournal()
		return nil, err
	}
	return &composition{sim: s, journal: journal, close: closeJournal}, nil
}

func actuatorSpec(kind string, c config.ActuatorConfig) device.ActuatorSpec {
	return device.ActuatorSpec{
		Kind:            kind,
		MaxSpeed:        c.MaxSpeed,
		MaxTurningSpeed: c.MaxTurningSpeed,
		EnergyCost:      c.EnergyCost,
		GraspSuccess:    c.GraspSuccess,
	}
}

// loadLibrary returns the built-in library, with the plan document at path
// registered over it when path is set.
func loadLibrary(path string) (*planner.Library, *planner.Registry, error) {
	library := planner.DefaultLibrary()
	registry := planner.NewDefaultRegistry()
	if path == "" {
		return library, registry, nil
	}
	doc, err := planner.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if err := library.RegisterDocument(doc, registry); err != nil {
		return nil, nil, err
	}
	return library, registry, nil
}

func openJournal(cfg config.JournalConfig) (sim.Journal, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case "none":
		return nil, noop, nil
	case "", "memory":
		return sim.NewMemoryJournal(), noop, nil
	case "sqlite":
		j, db, err := sim.OpenSQLiteJournal(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		retry := resilience.DefaultRetryConfig().
			WithMaxAttempts(cfg.RetryAttempts).
			WithInitialDelay(time.Duration(cfg.RetryDelayMS) * time.Millisecond)
		return sim.NewRetryJournal(j, retry), db.Close, nil
	default:
		return nil, nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("unknown journal driver %q", cfg.Driver), nil)
	}
}

func newRunResult(goal string, report sim.Report) runResult {
	return runResult{
		RunID:    report.RunID,
		Goal:     goal,
		Status:   report.Status,
		Ticks:    report.Ticks,
		Position: report.Position,
		Target:   report.Target,
		Found:    report.Found,
		Trapped:  report.Trapped,
		Battery:  report.Battery,
	}
}

func printRunResult(w io.Writer, result runResult, object string) {
	target := "unknown"
	if result.Target != nil {
		target = result.Target.String()
	}
	fmt.Fprintf(w, "Robot position: %s\n", result.Position)
	fmt.Fprintf(w, "Target (%s) position: %s\n", object, target)
	fmt.Fprintf(w, "Robot is trapped: %t\n", result.Trapped)
	fmt.Fprintf(w, "Robot battery percentage: %s\n", strconv.FormatFloat(result.Battery, 'f', -1, 64))
	fmt.Fprintf(w, "Status: %s after %d ticks (run %s)\n", result.Status, result.Ticks, result.RunID)

	if len(result.Trace) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := newTabWriter(w)
	writeRow(tw, "TICK", "ACTION", "DISPATCH", "ENERGY", "BATTERY", "POSITION", "FACING", "STATUS")
	for _, ev := range result.Trace {
		action := ev.Action
		if action == "" {
			action = "-"
		}
		writeRow(tw,
			strconv.Itoa(ev.Tick),
			action,
			string(ev.Dispatch),
			strconv.FormatFloat(ev.Energy, 'f', -1, 64),
			strconv.FormatFloat(ev.Battery, 'f', -1, 64),
			ev.Position.String(),
			string(ev.Orientation),
			string(ev.Status),
		)
	}
	_ = tw.Flush()
}

// findConfigPath returns the --config value in args, if any.
func findConfigPath(args []string) string {
	path := ""
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			path = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--config="):
			path = strings.TrimPrefix(args[i], "--config=")
		}
	}
	return path
}
