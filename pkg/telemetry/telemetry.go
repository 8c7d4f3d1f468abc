// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jllopis/rover/pkg/errors"
)

// ShutdownFunc flushes and releases telemetry resources.
type ShutdownFunc func(context.Context) error

// Exporter names accepted by InitWithConfig.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config controls telemetry exporter behavior.
// An empty Exporter means "none": the global no-op providers stay in place.
type Config struct {
	Exporter           string
	OTLPEndpoint       string
	OTLPInsecure       bool
	OTLPTimeoutSeconds int

	// Output receives stdout exporter data. Defaults to os.Stderr so that
	// command output on stdout stays machine readable.
	Output io.Writer

	// Attributes are added to the resource, e.g. RobotAttributes.
	Attributes []attribute.KeyValue
}

// Init initializes the OpenTelemetry SDK with stdout exporters.
func Init(serviceName, version string) (ShutdownFunc, error) {
	return InitWithConfig(serviceName, version, Config{Exporter: ExporterStdout})
}

// InitWithConfig installs global tracer and meter providers for cfg.Exporter.
func InitWithConfig(serviceName, version string, cfg Config) (ShutdownFunc, error) {
	exporter := strings.ToLower(strings.TrimSpace(cfg.Exporter))
	switch exporter {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterStdout, ExporterOTLP:
	default:
		return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("unknown telemetry exporter %q", cfg.Exporter), nil)
	}

	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	}, cfg.Attributes...)
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "create telemetry resource", err)
	}

	var traceExp trace.SpanExporter
	var metricExp metric.Exporter
	if exporter == ExporterStdout {
		traceExp, metricExp, err = stdoutExporters(cfg)
	} else {
		traceExp, metricExp, err = otlpExporters(cfg)
	}
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(traceExp, trace.WithBatchTimeout(time.Second)),
		trace.WithResource(res),
	)
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExp, metric.WithInterval(time.Minute))),
		metric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Shutdown flushes pending spans and the final metric collection.
	return func(ctx context.Context) error {
		if err := stderrors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx)); err != nil {
			return errors.New(errors.CodeInternal, "telemetry shutdown", err)
		}
		return nil
	}, nil
}

func stdoutExporters(cfg Config) (trace.SpanExporter, metric.Exporter, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	traceExp, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, errors.New(errors.CodeInternal, "create stdout trace exporter", err)
	}
	metricExp, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
	if err != nil {
		return nil, nil, errors.New(errors.CodeInternal, "create stdout metric exporter", err)
	}
	return traceExp, metricExp, nil
}

func otlpExporters(cfg Config) (trace.SpanExporter, metric.Exporter, error) {
	if cfg.OTLPEndpoint == "" {
		return nil, nil, errors.New(errors.CodeInvalidInput, "otlp endpoint is required", nil)
	}
	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPTimeoutSeconds > 0 {
		timeout := time.Duration(cfg.OTLPTimeoutSeconds) * time.Second
		traceOpts = append(traceOpts, otlptracegrpc.WithTimeout(timeout))
		metricOpts = append(metricOpts, otlpmetricgrpc.WithTimeout(timeout))
	}
	if cfg.OTLPInsecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	// gRPC exporters dial lazily, so an unreachable collector only surfaces on export.
	traceExp, err := otlptracegrpc.New(context.Background(), traceOpts...)
	if err != nil {
		return nil, nil, errors.New(errors.CodeInternal, "create otlp trace exporter", err)
	}
	metricExp, err := otlpmetricgrpc.New(context.Background(), metricOpts...)
	if err != nil {
		return nil, nil, errors.New(errors.CodeInternal, "create otlp metric exporter", err)
	}
	return traceExp, metricExp, nil
}
