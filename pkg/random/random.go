// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package random provides the injectable random source used by the planner's
// fallback plans and by the stochastic devices.
package random

import (
	"math/rand/v2"
	"time"
)

// Source yields uniformly distributed values.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
}

// PCG is a seeded pseudo-random Source.
type PCG struct {
	r *rand.Rand
}

// NewPCG returns a Source seeded with seed. A zero seed is replaced by the
// current time so unseeded runs differ.
func NewPCG(seed uint64) *PCG {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &PCG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *PCG) Float64() float64 { return p.r.Float64() }

func (p *PCG) IntN(n int) int { return p.r.IntN(n) }

// Sequence replays a fixed list of values in order, wrapping around.
// It lets tests script every random draw.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence returns a Sequence over values. Values are expected in [0, 1).
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &Sequence{values: append([]float64(nil), values...)}
}

func (s *Sequence) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// IntN maps the next value onto [0, n).
func (s *Sequence) IntN(n int) int {
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Draws returns how many values have been consumed.
func (s *Sequence) Draws() int { return s.next }

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Uniform returns a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}
