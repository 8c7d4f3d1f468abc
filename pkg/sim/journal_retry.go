// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"context"

	"github.com/jllopis/rover/pkg/resilience"
)

// RetryJournal retries failed writes to the wrapped journal. Reads are
// passed through unchanged.
type RetryJournal struct {
	next  Journal
	retry resilience.RetryConfig
}

// NewRetryJournal wraps next with the given retry policy.
func NewRetryJournal(next Journal, retry resilience.RetryConfig) *RetryJournal {
	return &RetryJournal{next: next, retry: retry}
}

// Record stores event, retrying recoverable failures.
func (j *RetryJournal) Record(ctx context.Context, event TickEvent) error {
	return j.retry.Do(ctx, func() error {
		return j.next.Record(ctx, event)
	})
}

// List returns matching events from the wrapped journal.
func (j *RetryJournal) List(ctx context.Context, filter JournalFilter) ([]TickEvent, error) {
	return j.next.List(ctx, filter)
}
