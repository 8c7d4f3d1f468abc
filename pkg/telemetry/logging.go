// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/rover/pkg/identity"
)

// Log attribute keys added from the context.
const (
	LogKeyRunID   = "run_id"
	LogKeyTraceID = "trace_id"
	LogKeySpanID  = "span_id"
)

// ConfigureSlog sets the global slog logger. Records logged with a context
// carry the run id and the active span.
func ConfigureSlog(output io.Writer, level, format string) *slog.Logger {
	logger := slog.New(newSlogHandler(output, level, format))
	slog.SetDefault(logger)
	return logger
}

func newSlogHandler(output io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return &contextHandler{next: slog.NewJSONHandler(output, opts)}
	}
	return &contextHandler{next: slog.NewTextHandler(output, opts)}
}

// contextHandler copies the run id and span ids from the context into each
// record. A run id already bound with Logger.With is not repeated.
type contextHandler struct {
	next     slog.Handler
	hasRunID bool
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, record)
	}
	if !h.hasRunID && !recordHasAttr(record, LogKeyRunID) {
		if runID, ok := identity.RunID(ctx); ok {
			record.AddAttrs(slog.String(LogKeyRunID, runID))
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		if !recordHasAttr(record, LogKeyTraceID) {
			record.AddAttrs(slog.String(LogKeyTraceID, sc.TraceID().String()))
		}
		if !recordHasAttr(record, LogKeySpanID) {
			record.AddAttrs(slog.String(LogKeySpanID, sc.SpanID().String()))
		}
	}
	return h.next.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hasRunID := h.hasRunID
	for _, a := range attrs {
		if a.Key == LogKeyRunID {
			hasRunID = true
		}
	}
	return &contextHandler{next: h.next.WithAttrs(attrs), hasRunID: hasRunID}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), hasRunID: h.hasRunID}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func recordHasAttr(record slog.Record, key string) bool {
	found := false
	record.Attrs(func(attr slog.Attr) bool {
		found = attr.Key == key
		return !found
	})
	return found
}

// RunLogger returns logger annotated with the run id, or logger itself when
// runID is empty.
func RunLogger(logger *slog.Logger, runID string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if runID == "" {
		return logger
	}
	return logger.With(slog.String(LogKeyRunID, runID))
}
