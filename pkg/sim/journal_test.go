// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jllopis/rover/pkg/grid"
	"github.com/jllopis/rover/pkg/resilience"
)

func journalEvents() []TickEvent {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []TickEvent{
		{RunID: "run-1", Tick: 1, Goal: "search", Action: "left", Dispatch: DispatchTurn, Energy: 0.5, Battery: 99.5, Orientation: grid.Left, Status: StatusRunning, StartedAt: start, FinishedAt: start.Add(time.Millisecond)},
		{RunID: "run-1", Tick: 2, Goal: "search", Action: "left", Dispatch: DispatchMove, Energy: 1, Battery: 98.5, Position: grid.Pt(-1, 0), Orientation: grid.Left, Status: StatusRunning, StartedAt: start.Add(time.Second)},
		{RunID: "run-1", Tick: 3, Goal: "search", Action: "trapped", Dispatch: DispatchTrapped, Battery: 98.5, Position: grid.Pt(-1, 0), Orientation: grid.Left, Status: StatusTrapped, StartedAt: start.Add(2 * time.Second)},
		{RunID: "run-2", Tick: 1, Goal: "search", Dispatch: DispatchIdle, Orientation: grid.Forward, Status: StatusBatteryExhausted, Error: "", StartedAt: start.Add(3 * time.Second)},
	}
}

func exerciseJournal(t *testing.T, j Journal) {
	t.Helper()
	ctx := context.Background()
	for _, ev := range journalEvents() {
		if err := j.Record(ctx, ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter JournalFilter
		ticks  []int
	}{
		{name: "all", filter: JournalFilter{}, ticks: []int{1, 2, 3, 1}},
		{name: "by run", filter: JournalFilter{RunID: "run-1"}, ticks: []int{1, 2, 3}},
		{name: "by status", filter: JournalFilter{Status: StatusTrapped}, ticks: []int{3}},
		{name: "by dispatch", filter: JournalFilter{RunID: "run-1", Dispatch: DispatchMove}, ticks: []int{2}},
		{name: "limit", filter: JournalFilter{RunID: "run-1", Limit: 2}, ticks: []int{1, 2}},
		{name: "no match", filter: JournalFilter{RunID: "run-9"}, ticks: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := j.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			ticks := make([]int, 0, len(events))
			for _, ev := range events {
				ticks = append(ticks, ev.Tick)
			}
			if diff := cmp.Diff(tt.ticks, ticks); diff != "" {
				t.Fatalf("ticks mismatch (-want +got):\n%s", diff)
			}
		})
	}

	events, err := j.List(ctx, JournalFilter{RunID: "run-1", Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := events[0]
	got.StartedAt = got.StartedAt.UTC()
	got.FinishedAt = got.FinishedAt.UTC()
	if diff := cmp.Diff(journalEvents()[0], got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryJournal(t *testing.T) {
	exerciseJournal(t, NewMemoryJournal())
}

func TestSQLiteJournal(t *testing.T) {
	db, err := sql.Open("sqlite", "file:rover_journal_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	j, err := NewSQLiteJournal(db)
	if err != nil {
		t.Fatalf("new sqlite journal: %v", err)
	}
	exerciseJournal(t, j)
}

func TestOpenSQLiteJournalFile(t *testing.T) {
	dsn := "file:" + t.TempDir() + "/journal.db"
	j, db, err := OpenSQLiteJournal(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ev := TickEvent{RunID: "run-x", Tick: 1, Goal: "search", Action: "right", Dispatch: DispatchTurn, Orientation: grid.Right, Status: StatusRunning}
	if err := j.Record(context.Background(), ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	events, err := j.List(context.Background(), JournalFilter{RunID: "run-x"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].Orientation != grid.Right {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestNewSQLiteJournalRejectsNilDB(t *testing.T) {
	if _, err := NewSQLiteJournal(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

// flakyJournal fails the first `failures` writes.
type flakyJournal struct {
	*MemoryJournal
	failures int
	calls    int
}

func (j *flakyJournal) Record(ctx context.Context, event TickEvent) error {
	j.calls++
	if j.calls <= j.failures {
		return stderrors.New("database is locked")
	}
	return j.MemoryJournal.Record(ctx, event)
}

func TestRetryJournal(t *testing.T) {
	retry := resilience.DefaultRetryConfig().WithInitialDelay(time.Millisecond).WithMaxDelay(time.Millisecond)

	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
		wantLen   int
	}{
		{name: "first try", failures: 0, wantCalls: 1, wantLen: 1},
		{name: "recovers", failures: 2, wantCalls: 3, wantLen: 1},
		{name: "gives up", failures: 5, wantErr: true, wantCalls: 3, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flaky := &flakyJournal{MemoryJournal: NewMemoryJournal(), failures: tt.failures}
			j := NewRetryJournal(flaky, retry)

			err := j.Record(context.Background(), journalEvents()[0])
			if (err != nil) != tt.wantErr {
				t.Fatalf("Record error = %v, wantErr %t", err, tt.wantErr)
			}
			if flaky.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", flaky.calls, tt.wantCalls)
			}
			events, err := j.List(context.Background(), JournalFilter{})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(events) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(events), tt.wantLen)
			}
		})
	}
}
