// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package sim runs the sense-plan-act control loop of a single rover.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/perception"
	"github.com/jllopis/rover/pkg/planner"
	"github.com/jllopis/rover/pkg/robot"
	"github.com/jllopis/rover/pkg/telemetry"
)

// Status describes where a run stands.
type Status string

const (
	StatusRunning          Status = "running"
	StatusBatteryExhausted Status = "battery_exhausted"
	StatusTargetFound      Status = "target_found"
	StatusTrapped          Status = "trapped"
	StatusTickLimit        Status = "tick_limit"
)

// Terminal reports whether no further tick should run.
func (s Status) Terminal() bool {
	return s != StatusRunning && s != ""
}

// Dispatch names the actuator call a tick made.
type Dispatch string

const (
	DispatchMove    Dispatch = "move"
	DispatchTurn    Dispatch = "turn"
	DispatchPickUp  Dispatch = "pick_up"
	DispatchPutDown Dispatch = "put_down"
	DispatchTrapped Dispatch = "trapped"
	DispatchIdle    Dispatch = "idle"
)

const (
	// DefaultGoal is the goal pursued when none is configured.
	DefaultGoal = planner.GoalSearch
	// DefaultSpeed is the speed passed to the motor and servo.
	DefaultSpeed = 1.0
	// DefaultObject is the object the gripper is asked to pick up.
	DefaultObject = "water"
)

// TickResult describes one completed tick.
type TickResult struct {
	Tick        int
	Goal        string
	Action      string
	Path        []string
	Dispatch    Dispatch
	Energy      float64
	Battery     float64
	Position    grid.Point
	Orientation grid.Direction
	Target      *grid.Point
	Status      Status
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	Status   Status
	Ticks    int
	Position grid.Point
	Target   *grid.Point
	Found    bool
	Trapped  bool
	Battery  float64
}

// Simulation owns the control loop for one robot.
type Simulation struct {
	robot    *robot.Robot
	resolver *planner.Resolver
	devices  Devices

	goal     string
	speed    float64
	object   string
	maxTicks int
	runID    string

	journal Journal
	metrics *telemetry.SimMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	ticks   int
	found   bool
	trapped bool
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithGoal sets the goal resolved every tick.
func WithGoal(goal string) Option {
	return func(s *Simulation) {
		if goal != "" {
			s.goal = goal
		}
	}
}

// WithSpeed sets the speed passed to the motor and servo.
func WithSpeed(speed float64) Option {
	return func(s *Simulation) {
		if speed > 0 {
			s.speed = speed
		}
	}
}

// WithObject sets the object passed to the gripper on pick up.
func WithObject(object string) Option {
	return func(s *Simulation) {
		if object != "" {
			s.object = object
		}
	}
}

// WithMaxTicks bounds Run. Zero means unlimited.
func WithMaxTicks(n int) Option {
	return func(s *Simulation) {
		if n >= 0 {
			s.maxTicks = n
		}
	}
}

// WithJournal records every tick in j.
func WithJournal(j Journal) Option {
	return func(s *Simulation) {
		s.journal = j
	}
}

// WithMetrics records tick and run counters in m.
func WithMetrics(m *telemetry.SimMetrics) Option {
	return func(s *Simulation) {
		s.metrics = m
	}
}

// WithLogger sets the simulation logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulation) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunID sets the run id stamped on journal events and logs.
func WithRunID(id string) Option {
	return func(s *Simulation) {
		s.runID = id
	}
}

// WithClock overrides the time source used for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Simulation) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a simulation for r driven by resolver through devices.
func New(r *robot.Robot, resolver *planner.Resolver, devices Devices, opts ...Option) (*Simulation, error) {
	if r == nil {
		return nil, errors.New(errors.CodeInvalidInput, "robot is required", nil)
	}
	if resolver == nil {
		return nil, errors.New(errors.CodeInvalidInput, "resolver is required", nil)
	}
	if err := devices.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		robot:    r,
		resolver: resolver,
		devices:  devices,
		goal:     DefaultGoal,
		speed:    DefaultSpeed,
		object:   DefaultObject,
		logger:   slog.Default(),
		tracer:   otel.Tracer("rover/sim"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = telemetry.RunLogger(s.logger, s.runID)
	return s, nil
}

// Robot returns the simulated robot.
func (s *Simulation) Robot() *robot.Robot { return s.robot }

// Goal returns the goal resolved every tick.
func (s *Simulation) Goal() string { return s.goal }

// RunID returns the run id, empty when none was set.
func (s *Simulation) RunID() string { return s.runID }

// Ticks returns the number of completed ticks.
func (s *Simulation) Ticks() int { return s.ticks }

// Found reports whether the target object was picked up.
func (s *Simulation) Found() bool { return s.found }

// Trapped reports whether the rover declared itself trapped.
func (s *Simulation) Trapped() bool { return s.trapped }

// Status evaluates the termination predicates. When more than one holds,
// target_found wins over trapped, and trapped over battery_exhausted.
func (s *Simulation) Status() Status {
	switch {
	case s.found:
		return StatusTargetFound
	case s.trapped:
		return StatusTrapped
	case s.robot.Battery() <= 0:
		return StatusBatteryExhausted
	default:
		return StatusRunning
	}
}

// Sense builds this tick's perception snapshot. Sample lists come first so
// the robot's own battery reading takes precedence over any sensor of the
// same name. A visible target updates the robot's belief; an unseen one
// leaves the previous belief in place.
func (s *Simulation) Sense() perception.Snapshot {
	b := perception.NewBuilder()
	for _, sampler := range s.devices.Samplers {
		b.Samples(sampler.Name(), sampler.Samples())
	}
	b.Battery(s.robot.Battery())

	s.robot.ObserveTarget(s.devices.Camera.TargetVisible())
	b.Target(s.robot.Target())

	for d, occ := range s.devices.Camera.DirectionsState() {
		b.Occupancy(d, occ)
	}
	b.Position(s.devices.Position.Position())
	return b.Build()
}

// Tick runs one sense-plan-act cycle. Resolution errors abort the tick
// before any actuator is touched.
func (s *Simulation) Tick(ctx context.Context) (TickResult, error) {
	n := s.ticks + 1
	ctx, span := s.tracer.Start(ctx, "Sim.Tick",
		trace.WithAttributes(telemetry.TickAttributes(s.runID, n, s.goal)...),
	)
	defer span.End()
	started := s.now()

	snap := s.Sense()
	res, err := s.resolver.ResolveGoal(ctx, s.goal, snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordError(ctx, err)
		s.record(ctx, TickEvent{
			RunID:       s.runID,
			Tick:        n,
			Goal:        s.goal,
			Dispatch:    DispatchIdle,
			Battery:     s.robot.Battery(),
			Position:    s.devices.Position.Position(),
			Orientation: s.robot.Orientation(),
			Status:      s.Status(),
			Error:       err.Error(),
			StartedAt:   started,
			FinishedAt:  s.now(),
		})
		return TickResult{}, fmt.Errorf("tick %d goal %q: %w", n, s.goal, err)
	}

	dispatch, energy := s.dispatch(res.Action)
	battery := s.robot.Debit(energy)
	s.ticks = n
	status := s.Status()

	result := TickResult{
		Tick:        n,
		Goal:        s.goal,
		Action:      res.Action,
		Path:        res.Path,
		Dispatch:    dispatch,
		Energy:      energy,
		Battery:     battery,
		Position:    s.devices.Position.Position(),
		Orientation: s.robot.Orientation(),
		Target:      s.robot.Target(),
		Status:      status,
	}

	span.SetAttributes(telemetry.OutcomeAttributes(res.Action, string(dispatch), energy, battery, result.Position, result.Orientation)...)
	s.metrics.RecordTick(ctx, s.goal, res.Action, string(dispatch), energy)
	s.record(ctx, TickEvent{
		RunID:       s.runID,
		Tick:        n,
		Goal:        s.goal,
		Action:      res.Action,
		Dispatch:    dispatch,
		Energy:      energy,
		Battery:     battery,
		Position:    result.Position,
		Orientation: result.Orientation,
		Status:      status,
		StartedAt:   started,
		FinishedAt:  s.now(),
	})
	s.logger.DebugContext(ctx, "tick",
		slog.Int("tick", n),
		slog.String("action", res.Action),
		slog.String("dispatch", string(dispatch)),
		slog.Float64("energy", energy),
		slog.Float64("battery", battery),
		slog.String("position", result.Position.String()),
		slog.String("orientation", string(result.Orientation)),
	)
	return result, nil
}

// dispatch performs action and returns what was done and its energy cost.
func (s *Simulation) dispatch(action string) (Dispatch, float64) {
	orientation := s.robot.Orientation()
	if action != planner.NoAction && action == string(orientation) {
		energy := s.devices.Motor.MoveForward(s.speed)
		s.devices.Position.Update(orientation)
		return DispatchMove, energy
	}
	if d, ok := grid.ParseDirection(action); ok {
		energy := s.devices.Servo.Turn(d, s.speed)
		s.robot.SetOrientation(d)
		return DispatchTurn, energy
	}
	switch action {
	case planner.ActionPickUp:
		ok, energy := s.devices.Gripper.PickUp(s.object)
		if ok {
			s.found = true
		}
		return DispatchPickUp, energy
	case planner.ActionPutDown:
		return DispatchPutDown, s.devices.Gripper.PutDown()
	case planner.ActionTrapped:
		s.trapped = true
		return DispatchTrapped, 0
	default:
		return DispatchIdle, 0
	}
}

func (s *Simulation) record(ctx context.Context, event TickEvent) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "journal record failed",
			slog.Int("tick", event.Tick),
			slog.String("error", err.Error()),
		)
	}
}

// Run ticks until a termination predicate holds, the tick limit is reached
// or ctx is cancelled. Cancellation is only observed between ticks.
func (s *Simulation) Run(ctx context.Context) (Report, error) {
	s.logger.InfoContext(ctx, "run started",
		slog.String("goal", s.goal),
		slog.Float64("battery", s.robot.Battery()),
		slog.String("position", s.devices.Position.Position().String()),
	)

	status := s.Status()
	for !status.Terminal() {
		if s.maxTicks > 0 && s.ticks >= s.maxTicks {
			status = StatusTickLimit
			break
		}
		if err := ctx.Err(); err != nil {
			return s.report(StatusRunning), err
		}
		res, err := s.Tick(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "run aborted",
				slog.Int("ticks", s.ticks),
				slog.String("code", string(errors.CodeOf(err))),
				slog.String("error", err.Error()),
			)
			return s.report(s.Status()), err
		}
		status = res.Status
	}

	report := s.report(status)
	s.metrics.RecordRun(ctx, string(status))
	s.logger.InfoContext(ctx, "run finished",
		slog.String("status", string(status)),
		slog.Int("ticks", report.Ticks),
		slog.Float64("battery", report.Battery),
		slog.String("position", report.Position.String()),
	)
	return report, nil
}

func (s *Simulation) report(status Status) Report {
	return Report{
		RunID:    s.runID,
		Status:   status,
		Ticks:    s.ticks,
		Position: s.devices.Position.Position(),
		Target:   s.robot.Target(),
		Found:    s.found,
		Trapped:  s.trapped,
		Battery:  s.robot.Battery(),
	}
}
