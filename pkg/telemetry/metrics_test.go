// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jllopis/rover/pkg/errors"
)

func withManualReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })
	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func intSum(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestSimMetricsRecordTick(t *testing.T) {
	reader := withManualReader(t)
	m, err := NewSimMetrics()
	if err != nil {
		t.Fatalf("NewSimMetrics: %v", err)
	}
	ctx := context.Background()

	m.RecordTick(ctx, "search", "left", "turn", 0.5)
	m.RecordTick(ctx, "search", "forward", "move", 1.0)
	m.RecordTick(ctx, "search", "", "idle", 0)

	got := collect(t, reader)
	if n := intSum(t, got["rover.ticks.total"]); n != 3 {
		t.Errorf("ticks: got %d, want 3", n)
	}
	if n := intSum(t, got["rover.actions.total"]); n != 3 {
		t.Errorf("actions: got %d, want 3", n)
	}
	energy, ok := got["rover.energy.consumed"].(metricdata.Sum[float64])
	if !ok {
		t.Fatalf("expected float64 sum for energy, got %T", got["rover.energy.consumed"])
	}
	var total float64
	for _, dp := range energy.DataPoints {
		total += dp.Value
	}
	if total != 1.5 {
		t.Errorf("energy: got %v, want 1.5", total)
	}
}

func TestSimMetricsRecordRunAndError(t *testing.T) {
	reader := withManualReader(t)
	m, err := NewSimMetrics()
	if err != nil {
		t.Fatalf("NewSimMetrics: %v", err)
	}
	ctx := context.Background()

	m.RecordRun(ctx, "target_found")
	m.RecordError(ctx, errors.MissingPerception("target"))
	m.RecordError(ctx, fmt.Errorf("plain failure"))
	m.RecordError(ctx, nil)

	got := collect(t, reader)
	if n := intSum(t, got["rover.runs.completed"]); n != 1 {
		t.Errorf("runs: got %d, want 1", n)
	}
	if n := intSum(t, got["rover.errors.total"]); n != 2 {
		t.Errorf("errors: got %d, want 2", n)
	}
}

func TestSimMetricsNilSafe(t *testing.T) {
	var m *SimMetrics
	ctx := context.Background()
	m.RecordTick(ctx, "search", "left", "turn", 1)
	m.RecordRun(ctx, "trapped")
	m.RecordError(ctx, errors.ErrPlanCycle)
}
