// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"context"
	"sync"
	"time"

	"github.com/jllopis/rover/pkg/grid"
)

// TickEvent is the journal entry for one tick.
type TickEvent struct {
	RunID       string         `json:"run_id"`
	Tick        int            `json:"tick"`
	Goal        string         `json:"goal"`
	Action      string         `json:"action"`
	Dispatch    Dispatch       `json:"dispatch"`
	Energy      float64        `json:"energy"`
	Battery     float64        `json:"battery"`
	Position    grid.Point     `json:"position"`
	Orientation grid.Direction `json:"orientation"`
	Status      Status         `json:"status"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// Journal records tick events.
type Journal interface {
	Record(ctx context.Context, event TickEvent) error
	List(ctx context.Context, filter JournalFilter) ([]TickEvent, error)
}

// JournalFilter limits journal queries. Zero fields match everything.
type JournalFilter struct {
	RunID    string
	Status   Status
	Dispatch Dispatch
	Limit    int
}

func (f JournalFilter) match(ev TickEvent) bool {
	if f.RunID != "" && ev.RunID != f.RunID {
		return false
	}
	if f.Status != "" && ev.Status != f.Status {
		return false
	}
	if f.Dispatch != "" && ev.Dispatch != f.Dispatch {
		return false
	}
	return true
}

// MemoryJournal keeps tick events in memory.
type MemoryJournal struct {
	mu     sync.Mutex
	events []TickEvent
}

// NewMemoryJournal returns an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Record appends a tick event.
func (j *MemoryJournal) Record(_ context.Context, event TickEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
	return nil
}

// List returns filtered tick events in recording order.
func (j *MemoryJournal) List(_ context.Context, filter JournalFilter) ([]TickEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]TickEvent, 0, len(j.events))
	for _, ev := range j.events {
		if !filter.match(ev) {
			continue
		}
		out = append(out, ev)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of recorded events.
func (j *MemoryJournal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.events)
}

// normalizeJournalTime ensures timestamps are in UTC.
func normalizeJournalTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
