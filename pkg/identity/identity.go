// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity hands out component identifiers and run ids.
//
// Identifiers are counted per kind by an Allocator owned by whoever wires a
// simulation together, so two simulations in one process never share state.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Kind groups identifiers that share a counter.
type Kind string

const (
	KindRobot    Kind = "robot"
	KindSensor   Kind = "sensor"
	KindActuator Kind = "actuator"
)

// Allocator issues increasing integer ids per Kind, starting at 0.
type Allocator struct {
	next map[Kind]int
}

// NewAllocator returns an empty Allocator.
func NewAllocator() *Allocator {
	return &Allocator{next: make(map[Kind]int)}
}

// Next returns the next id for kind.
func (a *Allocator) Next(kind Kind) int {
	id := a.next[kind]
	a.next[kind] = id + 1
	return id
}

// Issued returns how many ids of kind have been handed out.
func (a *Allocator) Issued(kind Kind) int {
	return a.next[kind]
}

type runIDKey struct{}

// WithRunID attaches a run id to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id if present.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// EnsureRunID ensures a run id exists in the context.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := NewRunID()
	return WithRunID(ctx, id), id
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return "run-" + uuid.NewString()
}
