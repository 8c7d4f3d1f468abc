// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"sort"

	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/perception"
)

// Names of the built-in conditions and decisions.
const (
	CondAlways         = "always"
	CondBatteryNonzero = "battery_nonzero"
	CondTargetKnown    = "target_known"
	CondTargetReached  = "target_reached"

	DecisionChooseDir     = "choose_dir"
	DecisionChooseBestDir = "choose_best_dir"
)

// Always holds unconditionally.
func Always(perception.Snapshot) (bool, error) { return true, nil }

// BatteryNonzero holds while the battery level is not exactly zero.
func BatteryNonzero(snap perception.Snapshot) (bool, error) {
	level, err := snap.Battery()
	if err != nil {
		return false, err
	}
	return level != 0, nil
}

// TargetKnown holds once a target position has been observed.
func TargetKnown(snap perception.Snapshot) (bool, error) {
	target, err := snap.Target()
	if err != nil {
		return false, err
	}
	return target != nil, nil
}

// TargetReached holds when the target is known and exactly one step away.
// Standing on the target does not count.
func TargetReached(snap perception.Snapshot) (bool, error) {
	target, err := snap.Target()
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, nil
	}
	pos, err := snap.Position()
	if err != nil {
		return false, err
	}
	return grid.Manhattan(pos, *target) == 1, nil
}

// ChooseDir returns the first free direction in scan order, or trapped.
func ChooseDir(snap perception.Snapshot) (string, error) {
	return firstFree(snap, grid.ScanOrder[:])
}

// ChooseBestDir returns the free direction whose neighbouring cell is
// closest to the target, or trapped. Equal distances keep scan order.
func ChooseBestDir(snap perception.Snapshot) (string, error) {
	pos, err := snap.Position()
	if err != nil {
		return NoAction, err
	}
	target, err := snap.Target()
	if err != nil {
		return NoAction, err
	}
	if target == nil {
		return NoAction, errors.MissingPerception(perception.KeyTarget).
			WithContext("reason", "target position unknown")
	}

	dirs := grid.ScanOrder
	ordered := dirs[:]
	sort.SliceStable(ordered, func(i, j int) bool {
		return grid.Manhattan(pos.Step(ordered[i]), *target) < grid.Manhattan(pos.Step(ordered[j]), *target)
	})
	return firstFree(snap, ordered)
}

func firstFree(snap perception.Snapshot, dirs []grid.Direction) (string, error) {
	for _, d := range dirs {
		occ, err := snap.Occupancy(d)
		if err != nil {
			return NoAction, err
		}
		if occ == perception.Free {
			return string(d), nil
		}
	}
	return ActionTrapped, nil
}
