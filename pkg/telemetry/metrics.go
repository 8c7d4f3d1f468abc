// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/rover/pkg/errors"
)

// SimMetrics records counters for the simulation loop.
// A nil *SimMetrics is valid and records nothing.
type SimMetrics struct {
	// tickCounter counts completed ticks by goal
	tickCounter metric.Int64Counter

	// energyCounter sums battery debited by dispatch kind
	energyCounter metric.Float64Counter

	// actionCounter counts resolved actions by identifier
	actionCounter metric.Int64Counter

	// runCounter counts finished runs by terminal status
	runCounter metric.Int64Counter

	// errorCounter counts failed ticks by error code
	errorCounter metric.Int64Counter
}

// NewSimMetrics creates the simulation instruments on the global meter provider.
func NewSimMetrics() (*SimMetrics, error) {
	meter := otel.Meter("rover/sim")

	tickCounter, err := meter.Int64Counter(
		"rover.ticks.total",
		metric.WithDescription("Completed control loop ticks by goal"),
	)
	if err != nil {
		return nil, err
	}

	energyCounter, err := meter.Float64Counter(
		"rover.energy.consumed",
		metric.WithDescription("Battery percentage consumed by dispatch kind"),
		metric.WithUnit("%"),
	)
	if err != nil {
		return nil, err
	}

	actionCounter, err := meter.Int64Counter(
		"rover.actions.total",
		metric.WithDescription("Actions selected by the resolver"),
	)
	if err != nil {
		return nil, err
	}

	runCounter, err := meter.Int64Counter(
		"rover.runs.completed",
		metric.WithDescription("Finished runs by terminal status"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"rover.errors.total",
		metric.WithDescription("Failed ticks by error code"),
	)
	if err != nil {
		return nil, err
	}

	return &SimMetrics{
		tickCounter:   tickCounter,
		energyCounter: energyCounter,
		actionCounter: actionCounter,
		runCounter:    runCounter,
		errorCounter:  errorCounter,
	}, nil
}

// RecordTick counts one tick, the action it resolved and the energy it spent.
func (m *SimMetrics) RecordTick(ctx context.Context, goal, action, dispatch string, energy float64) {
	if m == nil {
		return
	}
	if action == "" {
		action = "none"
	}
	m.tickCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrGoal, goal)))
	m.actionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrAction, action)))
	if energy > 0 {
		m.energyCounter.Add(ctx, energy, metric.WithAttributes(attribute.String(AttrDispatch, dispatch)))
	}
}

// RecordRun counts a finished run.
func (m *SimMetrics) RecordRun(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrRunStatus, status)))
}

// RecordError counts a failed tick by its error code.
func (m *SimMetrics) RecordError(ctx context.Context, err error) {
	if m == nil || err == nil {
		return
	}
	re := errors.AsRoverError(err)
	m.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrErrorCode, string(re.Code)),
			attribute.String("recoverable", re.RecoverableString()),
		),
	)
}
