// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"testing"

	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/identity"
	"github.com/jllopis/rover/pkg/perception"
	"github.com/jllopis/rover/pkg/random"
)

func TestSensorSamples(t *testing.T) {
	ids := identity.NewAllocator()
	s := NewSensor(ids, random.NewSequence(0, 0.5), "ultra_sound", 100, 3)
	got := s.Samples()
	want := []float64{1, 50.5, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if s.Name() != "ultra_sound" || s.ID() != 0 {
		t.Fatalf("unexpected sensor identity %q %d", s.Name(), s.ID())
	}
	if other := NewSensor(ids, random.NewSequence(0), "camera", 0, 1); other.ID() != 1 {
		t.Fatalf("expected second sensor id 1, got %d", other.ID())
	}
}

func TestSensorAvailability(t *testing.T) {
	s := NewSensor(identity.NewAllocator(), random.NewSequence(0), "temperature", 10, 5)
	s.Disable()
	if s.Available() {
		t.Fatalf("expected unavailable")
	}
	s.Restore()
	if !s.Available() {
		t.Fatalf("expected available after restore")
	}
}

func TestPositionSensorUpdate(t *testing.T) {
	p := NewPositionSensor(NewSensor(identity.NewAllocator(), random.NewSequence(0), "position", 1, 10), grid.Pt(0, 0))
	p.Update(grid.Forward)
	p.Update(grid.Forward)
	p.Update(grid.Right)
	p.Update(grid.Backward)
	p.Update(grid.Left)
	p.Update(grid.Left)
	if got := p.Position(); got != grid.Pt(-1, 1) {
		t.Fatalf("expected (-1,1), got %v", got)
	}
}

func TestCamera(t *testing.T) {
	// Draws: visibility 0.05 (seen), then four occupancy draws.
	seq := random.NewSequence(0.05, 0.1, 0.9, 0.3, 0.19)
	cam := NewCamera(NewSensor(identity.NewAllocator(), seq, "camera", 0, 1), grid.Pt(25, 20), 0.1, 0.2)

	visible, at := cam.TargetVisible()
	if !visible || at == nil || *at != grid.Pt(25, 20) {
		t.Fatalf("expected visible target at (25,20), got %v %v", visible, at)
	}
	state := cam.DirectionsState()
	want := map[grid.Direction]perception.Occupancy{
		grid.Left:     perception.Blocked,
		grid.Right:    perception.Free,
		grid.Forward:  perception.Free,
		grid.Backward: perception.Blocked,
	}
	for d, o := range want {
		if state[d] != o {
			t.Fatalf("%s: expected %s, got %s", d, o, state[d])
		}
	}

	cam = NewCamera(NewSensor(identity.NewAllocator(), random.NewSequence(0.5), "camera", 0, 1), grid.Pt(25, 20), 0.1, 0.2)
	if visible, at := cam.TargetVisible(); visible || at != nil {
		t.Fatalf("expected target hidden")
	}
}

func TestActuatorClampsAndCosts(t *testing.T) {
	motor := NewActuator(identity.NewAllocator(), random.NewSequence(0), ActuatorSpec{
		Kind: "motor", MaxSpeed: 10, MaxTurningSpeed: 2, EnergyCost: 1,
	}, nil)
	if cost := motor.MoveForward(40); cost != 1 || motor.Speed() != 10 {
		t.Fatalf("expected clamp to 10 at cost 1, got speed %v cost %v", motor.Speed(), cost)
	}
	if cost := motor.Turn(grid.Right, 30); cost != 1 || motor.TurningSpeed() != 2 {
		t.Fatalf("expected turn clamp to 2, got %v cost %v", motor.TurningSpeed(), cost)
	}
	motor.MoveForward(4)
	if motor.Speed() != 4 {
		t.Fatalf("expected speed 4, got %v", motor.Speed())
	}
}

func TestGripper(t *testing.T) {
	gripper := NewActuator(identity.NewAllocator(), random.NewSequence(0.7, 0.2), ActuatorSpec{
		Kind: "gripper", MaxSpeed: 2, MaxTurningSpeed: 1, EnergyCost: 0.2, GraspSuccess: 0.5,
	}, nil)

	if cost := gripper.PutDown(); cost != 0 {
		t.Fatalf("empty put down should be free, got %v", cost)
	}
	ok, cost := gripper.PickUp("water")
	if ok || cost != 0.2 {
		t.Fatalf("expected failed pick up at cost 0.2, got %v %v", ok, cost)
	}
	ok, _ = gripper.PickUp("water")
	if !ok {
		t.Fatalf("expected successful pick up")
	}
	if held, ok := gripper.HeldObject(); !ok || held != "water" {
		t.Fatalf("expected holding water, got %q", held)
	}
	if cost := gripper.PutDown(); cost != 0.2 {
		t.Fatalf("expected put down cost 0.2, got %v", cost)
	}
	if _, ok := gripper.HeldObject(); ok {
		t.Fatalf("expected empty gripper")
	}
}
