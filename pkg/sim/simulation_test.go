// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jllopis/rover/pkg/device"
	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/identity"
	"github.com/jllopis/rover/pkg/perception"
	"github.com/jllopis/rover/pkg/planner"
	"github.com/jllopis/rover/pkg/random"
	"github.com/jllopis/rover/pkg/robot"
)

type fakePosition struct {
	pos     grid.Point
	updates []grid.Direction
}

func (f *fakePosition) Position() grid.Point { return f.pos }

func (f *fakePosition) Update(d grid.Direction) {
	f.updates = append(f.updates, d)
	f.pos = f.pos.Step(d)
}

// fakeCamera sees the target on the ticks listed in visibleOn (1-based).
type fakeCamera struct {
	target    grid.Point
	visibleOn map[int]bool
	blocked   map[grid.Direction]bool
	calls     int
}

func (f *fakeCamera) TargetVisible() (bool, *grid.Point) {
	f.calls++
	if !f.visibleOn[f.calls] {
		return false, nil
	}
	t := f.target
	return true, &t
}

func (f *fakeCamera) DirectionsState() map[grid.Direction]perception.Occupancy {
	out := make(map[grid.Direction]perception.Occupancy)
	for _, d := range grid.ScanOrder {
		if f.blocked[d] {
			out[d] = perception.Blocked
		} else {
			out[d] = perception.Free
		}
	}
	return out
}

type fakeSampler struct {
	name    string
	samples []float64
}

func (f fakeSampler) Name() string       { return f.name }
func (f fakeSampler) Samples() []float64 { return f.samples }

type fakeActuators struct {
	graspOK  bool
	moves    int
	turns    []grid.Direction
	picks    []string
	putDowns int
	speeds   []float64
}

func (f *fakeActuators) MoveForward(speed float64) float64 {
	f.moves++
	f.speeds = append(f.speeds, speed)
	return device.MotorSpec.EnergyCost
}

func (f *fakeActuators) Turn(d grid.Direction, speed float64) float64 {
	f.turns = append(f.turns, d)
	f.speeds = append(f.speeds, speed)
	return device.ServoSpec.EnergyCost
}

func (f *fakeActuators) PickUp(object string) (bool, float64) {
	f.picks = append(f.picks, object)
	return f.graspOK, device.GripperSpec.EnergyCost
}

func (f *fakeActuators) PutDown() float64 {
	f.putDowns++
	return device.GripperSpec.EnergyCost
}

type fixture struct {
	robot   *robot.Robot
	pos     *fakePosition
	camera  *fakeCamera
	act     *fakeActuators
	journal *MemoryJournal
	sim     *Simulation
}

func newFixture(t *testing.T, robotOpts []robot.Option, lib *planner.Library, opts ...Option) *fixture {
	t.Helper()
	r, err := robot.New(identity.NewAllocator(), "WaterFinder", robotOpts...)
	if err != nil {
		t.Fatalf("robot.New: %v", err)
	}
	if lib == nil {
		lib = planner.DefaultLibrary()
	}
	f := &fixture{
		robot:   r,
		pos:     &fakePosition{},
		camera:  &fakeCamera{target: device.DefaultTarget, visibleOn: map[int]bool{}, blocked: map[grid.Direction]bool{}},
		act:     &fakeActuators{},
		journal: NewMemoryJournal(),
	}
	devices := Devices{
		Position: f.pos,
		Camera:   f.camera,
		Samplers: []Sampler{fakeSampler{name: "ultra_sound", samples: []float64{12, 40}}},
		Motor:    f.act,
		Servo:    f.act,
		Gripper:  f.act,
	}
	resolver := planner.NewResolver(lib, planner.WithRandom(random.NewSequence(0)))
	opts = append([]Option{WithJournal(f.journal), WithRunID("run-test")}, opts...)
	f.sim, err = New(r, resolver, devices, opts...)
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	return f
}

func TestTickSearchAllFreeTurnsLeft(t *testing.T) {
	f := newFixture(t, nil, nil)

	res, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	want := TickResult{
		Tick:        1,
		Goal:        planner.GoalSearch,
		Action:      "left",
		Path:        []string{planner.GoalSearch, planner.GoalWonder, planner.DecisionChooseDir},
		Dispatch:    DispatchTurn,
		Energy:      0.5,
		Battery:     99.5,
		Position:    grid.Pt(0, 0),
		Orientation: grid.Left,
		Status:      StatusRunning,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("tick result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]grid.Direction{grid.Left}, f.act.turns); diff != "" {
		t.Fatalf("turns mismatch (-want +got):\n%s", diff)
	}
	if len(f.pos.updates) != 0 {
		t.Fatalf("a turn must not move the rover, got updates %v", f.pos.updates)
	}
}

func TestTickMovesWhenActionMatchesOrientation(t *testing.T) {
	f := newFixture(t, []robot.Option{robot.WithOrientation(grid.Left)}, nil)

	res, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Dispatch != DispatchMove {
		t.Fatalf("expected move, got %s", res.Dispatch)
	}
	if res.Position != grid.Pt(-1, 0) {
		t.Fatalf("expected (-1,0), got %s", res.Position)
	}
	if res.Battery != 99 {
		t.Fatalf("expected battery 99, got %v", res.Battery)
	}
	if diff := cmp.Diff([]float64{DefaultSpeed}, f.act.speeds); diff != "" {
		t.Fatalf("speeds mismatch (-want +got):\n%s", diff)
	}
}

func TestTickZeroBatteryIsIdle(t *testing.T) {
	f := newFixture(t, []robot.Option{robot.WithBattery(0)}, nil)

	res, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Action != planner.NoAction || res.Dispatch != DispatchIdle {
		t.Fatalf("expected idle tick, got action %q dispatch %s", res.Action, res.Dispatch)
	}
	if res.Energy != 0 || res.Battery != 0 {
		t.Fatalf("idle tick must not debit, got energy %v battery %v", res.Energy, res.Battery)
	}
	if res.Status != StatusBatteryExhausted {
		t.Fatalf("expected battery_exhausted, got %s", res.Status)
	}
	if f.act.moves != 0 || len(f.act.turns) != 0 || len(f.act.picks) != 0 {
		t.Fatalf("no actuator should run, got %+v", f.act)
	}
}

func TestTickPickUp(t *testing.T) {
	tests := []struct {
		name       string
		graspOK    bool
		wantStatus Status
	}{
		{name: "success finds target", graspOK: true, wantStatus: StatusTargetFound},
		{name: "failure still debits", graspOK: false, wantStatus: StatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil, WithObject("rock"))
			f.camera.target = grid.Pt(0, 1)
			f.camera.visibleOn[1] = true
			f.act.graspOK = tt.graspOK

			res, err := f.sim.Tick(context.Background())
			if err != nil {
				t.Fatalf("tick: %v", err)
			}
			if res.Action != planner.ActionPickUp || res.Dispatch != DispatchPickUp {
				t.Fatalf("expected pick_up, got %q/%s", res.Action, res.Dispatch)
			}
			if res.Battery != 99.8 {
				t.Fatalf("expected battery 99.8, got %v", res.Battery)
			}
			if res.Status != tt.wantStatus {
				t.Fatalf("expected %s, got %s", tt.wantStatus, res.Status)
			}
			if diff := cmp.Diff([]string{"rock"}, f.act.picks); diff != "" {
				t.Fatalf("picks mismatch (-want +got):\n%s", diff)
			}
			if f.sim.Found() != tt.graspOK {
				t.Fatalf("Found() = %v, want %v", f.sim.Found(), tt.graspOK)
			}
		})
	}
}

func TestTickTrappedCostsNothing(t *testing.T) {
	f := newFixture(t, nil, nil)
	for _, d := range grid.ScanOrder {
		f.camera.blocked[d] = true
	}

	res, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Action != planner.ActionTrapped || res.Dispatch != DispatchTrapped {
		t.Fatalf("expected trapped, got %q/%s", res.Action, res.Dispatch)
	}
	if res.Energy != 0 || res.Battery != robot.FullBattery {
		t.Fatalf("trapped must not debit, got energy %v battery %v", res.Energy, res.Battery)
	}
	if res.Status != StatusTrapped || !f.sim.Trapped() {
		t.Fatalf("expected trapped status, got %s", res.Status)
	}
}

func TestTickBatteryMayGoNegative(t *testing.T) {
	f := newFixture(t, []robot.Option{robot.WithBattery(0.3)}, nil)

	res, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Battery >= 0 {
		t.Fatalf("expected negative battery, got %v", res.Battery)
	}
	if res.Status != StatusBatteryExhausted {
		t.Fatalf("expected battery_exhausted, got %s", res.Status)
	}
}

func TestTickTargetBeliefIsSticky(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.camera.target = grid.Pt(5, 5)
	f.camera.visibleOn[1] = true

	first, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	second, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick 2: %v", err)
	}

	want := grid.Pt(5, 5)
	for i, res := range []TickResult{first, second} {
		if res.Target == nil || *res.Target != want {
			t.Fatalf("tick %d: expected target %s, got %v", i+1, want, res.Target)
		}
	}
	// From (0,0) right and forward both leave 9 cells to (5,5); scan order picks right.
	if first.Action != "right" {
		t.Fatalf("expected right toward target, got %q", first.Action)
	}
	if second.Action != "right" || second.Dispatch != DispatchMove {
		t.Fatalf("expected a move right on tick 2, got %q/%s", second.Action, second.Dispatch)
	}
}

func TestTickMissingPerceptionAborts(t *testing.T) {
	lib := planner.NewLibrary()
	lib.Register("probe", planner.Plan{planner.When(planner.CondAlways, planner.Compute(planner.DecisionChooseBestDir))})
	f := newFixture(t, nil, lib, WithGoal("probe"))

	_, err := f.sim.Tick(context.Background())
	if !stderrors.Is(err, errors.ErrMissingPerception) {
		t.Fatalf("expected missing perception, got %v", err)
	}
	if f.sim.Ticks() != 0 {
		t.Fatalf("failed tick must not count, got %d", f.sim.Ticks())
	}
	if f.robot.Battery() != robot.FullBattery || len(f.act.turns) != 0 {
		t.Fatalf("failed tick must not act, battery %v turns %v", f.robot.Battery(), f.act.turns)
	}
	events, _ := f.journal.List(context.Background(), JournalFilter{})
	if len(events) != 1 || events[0].Error == "" {
		t.Fatalf("expected one journaled failure, got %+v", events)
	}
}

func TestTickPutDown(t *testing.T) {
	lib := planner.NewLibrary()
	lib.Register("drop", planner.Plan{planner.When(planner.CondAlways, planner.Literal(planner.ActionPutDown))})
	f := newFixture(t, nil, lib, WithGoal("drop"))

	res, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Dispatch != DispatchPutDown || f.act.putDowns != 1 {
		t.Fatalf("expected put_down dispatch, got %s (%d calls)", res.Dispatch, f.act.putDowns)
	}
	if res.Energy != device.GripperSpec.EnergyCost {
		t.Fatalf("expected gripper cost, got %v", res.Energy)
	}
}

func TestTickCustomLiteralIsIdle(t *testing.T) {
	lib := planner.NewLibrary()
	lib.Register("dance", planner.Plan{planner.When(planner.CondAlways, planner.Literal("spin"))})
	f := newFixture(t, nil, lib, WithGoal("dance"))

	res, err := f.sim.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Action != "spin" || res.Dispatch != DispatchIdle || res.Energy != 0 {
		t.Fatalf("expected idle spin, got %+v", res)
	}
}

func TestSenseSnapshot(t *testing.T) {
	f := newFixture(t, []robot.Option{robot.WithBattery(42)}, nil)
	f.sim.devices.Samplers = append(f.sim.devices.Samplers, fakeSampler{name: perception.KeyBattery, samples: []float64{7}})
	f.camera.blocked[grid.Forward] = true

	snap := f.sim.Sense()

	battery, err := snap.Battery()
	if err != nil || battery != 42 {
		t.Fatalf("battery must come from the robot, got %v (%v)", battery, err)
	}
	samples, err := snap.Samples("ultra_sound")
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if diff := cmp.Diff([]float64{12, 40}, samples); diff != "" {
		t.Fatalf("samples mismatch (-want +got):\n%s", diff)
	}
	occ, err := snap.Occupancy(grid.Forward)
	if err != nil || occ != perception.Blocked {
		t.Fatalf("expected forward blocked, got %v (%v)", occ, err)
	}
	target, err := snap.Target()
	if err != nil || target != nil {
		t.Fatalf("expected unknown target, got %v (%v)", target, err)
	}
}

func TestRunUntilTrapped(t *testing.T) {
	f := newFixture(t, nil, nil)
	for _, d := range grid.ScanOrder {
		f.camera.blocked[d] = true
	}

	report, err := f.sim.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := Report{
		RunID:    "run-test",
		Status:   StatusTrapped,
		Ticks:    1,
		Position: grid.Pt(0, 0),
		Trapped:  true,
		Battery:  robot.FullBattery,
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWithEmptyBatteryRunsNoTicks(t *testing.T) {
	f := newFixture(t, []robot.Option{robot.WithBattery(0)}, nil)

	report, err := f.sim.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Status != StatusBatteryExhausted || report.Ticks != 0 {
		t.Fatalf("expected immediate battery_exhausted, got %+v", report)
	}
	if f.journal.Len() != 0 {
		t.Fatalf("expected empty journal, got %d events", f.journal.Len())
	}
}

func TestRunDrainsBatteryBelowZero(t *testing.T) {
	f := newFixture(t, []robot.Option{robot.WithBattery(3)}, nil)

	report, err := f.sim.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// turn left (2.5), then three moves left (1.5, 0.5, -0.5)
	if report.Ticks != 4 || report.Battery != -0.5 {
		t.Fatalf("expected 4 ticks ending at -0.5, got %d ticks at %v", report.Ticks, report.Battery)
	}
	if report.Position != grid.Pt(-3, 0) {
		t.Fatalf("expected (-3,0), got %s", report.Position)
	}
	if report.Status != StatusBatteryExhausted {
		t.Fatalf("expected battery_exhausted, got %s", report.Status)
	}

	moves, err := f.journal.List(context.Background(), JournalFilter{RunID: "run-test", Dispatch: DispatchMove})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(moves) != 3 {
		t.Fatalf("expected 3 journaled moves, got %d", len(moves))
	}
}

func TestRunTickLimit(t *testing.T) {
	f := newFixture(t, nil, nil, WithMaxTicks(3))

	report, err := f.sim.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Status != StatusTickLimit || report.Ticks != 3 {
		t.Fatalf("expected tick_limit after 3 ticks, got %+v", report)
	}
	if report.Battery != 97.5 {
		t.Fatalf("expected battery 97.5, got %v", report.Battery)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.sim.Run(ctx)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Ticks != 0 || report.Status != StatusRunning {
		t.Fatalf("expected no ticks, got %+v", report)
	}
}

func TestRunUnknownGoalUsesFallbackPlan(t *testing.T) {
	r, err := robot.New(identity.NewAllocator(), "WaterFinder")
	if err != nil {
		t.Fatalf("robot.New: %v", err)
	}
	act := &fakeActuators{}
	devices := Devices{
		Position: &fakePosition{},
		Camera:   &fakeCamera{visibleOn: map[int]bool{}, blocked: map[grid.Direction]bool{}},
		Motor:    act,
		Servo:    act,
		Gripper:  act,
	}
	// 0.9 draws the (battery_nonzero, wonder) pool rule every time.
	resolver := planner.NewResolver(planner.DefaultLibrary(), planner.WithRandom(random.NewSequence(0.9)))
	s, err := New(r, resolver, devices, WithGoal("explore"))
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}

	res, err := s.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Action != "left" {
		t.Fatalf("expected wonder to choose left, got %q", res.Action)
	}
}

func TestNewValidatesCollaborators(t *testing.T) {
	r, _ := robot.New(identity.NewAllocator(), "r")
	resolver := planner.NewResolver(planner.DefaultLibrary())

	if _, err := New(nil, resolver, Devices{}); errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Fatalf("expected invalid input for nil robot, got %v", err)
	}
	if _, err := New(r, nil, Devices{}); errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Fatalf("expected invalid input for nil resolver, got %v", err)
	}
	_, err := New(r, resolver, Devices{Position: &fakePosition{}})
	re := errors.AsRoverError(err)
	if re.Code != errors.CodeInvalidInput || re.Context["device"] != "camera" {
		t.Fatalf("expected missing camera, got %v", err)
	}
}

func TestRunWithStochasticDevices(t *testing.T) {
	ids := identity.NewAllocator()
	rng := random.NewPCG(42)

	r, err := robot.New(ids, "WaterFinder", robot.WithDimensions(1.5, 0.3), robot.WithWeight(20))
	if err != nil {
		t.Fatalf("robot.New: %v", err)
	}
	position := device.NewPositionSensor(device.NewSensor(ids, rng, "position", 1.0, 10), grid.Pt(0, 0))
	camera := device.NewCamera(device.NewSensor(ids, rng, "camera", 0, 1), device.DefaultTarget, device.DefaultVisibility, device.DefaultBlockedProb)
	devices := Devices{
		Position: position,
		Camera:   camera,
		Samplers: []Sampler{position, camera, device.NewSensor(ids, rng, "ultra_sound", 100, 10)},
		Motor:    device.NewActuator(ids, rng, device.MotorSpec, nil),
		Servo:    device.NewActuator(ids, rng, device.ServoSpec, nil),
		Gripper:  device.NewActuator(ids, rng, device.GripperSpec, nil),
	}
	resolver := planner.NewResolver(planner.DefaultLibrary(), planner.WithRandom(rng))
	journal := NewMemoryJournal()
	s, err := New(r, resolver, devices, WithJournal(journal), WithMaxTicks(1000))
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Status.Terminal() {
		t.Fatalf("expected a terminal status, got %s", report.Status)
	}
	if report.Status == StatusBatteryExhausted && report.Battery > 0 {
		t.Fatalf("battery_exhausted with %v left", report.Battery)
	}
	if journal.Len() != report.Ticks {
		t.Fatalf("journal has %d events for %d ticks", journal.Len(), report.Ticks)
	}
}
