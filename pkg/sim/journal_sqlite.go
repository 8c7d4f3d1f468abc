// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/grid"
)

// SQLiteJournal persists tick events in SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal creates a SQLite-backed journal and ensures the schema.
func NewSQLiteJournal(db *sql.DB) (*SQLiteJournal, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "db is nil", nil)
	}
	if err := ensureJournalSchema(db); err != nil {
		return nil, errors.New(errors.CodeInternal, "create journal schema", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// OpenSQLiteJournal opens dsn with the sqlite driver and returns a journal
// over it. Callers close the returned database.
func OpenSQLiteJournal(dsn string) (*SQLiteJournal, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, errors.New(errors.CodeInternal, "open sqlite journal", err).WithContext("dsn", dsn)
	}
	j, err := NewSQLiteJournal(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return j, db, nil
}

// Record stores a single tick event.
func (j *SQLiteJournal) Record(ctx context.Context, event TickEvent) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO rover_tick_events (
			run_id, tick, goal, action, dispatch, energy, battery,
			pos_x, pos_y, orientation, status, error_text, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.RunID,
		event.Tick,
		event.Goal,
		event.Action,
		string(event.Dispatch),
		event.Energy,
		event.Battery,
		event.Position.X,
		event.Position.Y,
		string(event.Orientation),
		string(event.Status),
		event.Error,
		normalizeJournalTime(event.StartedAt),
		normalizeJournalTime(event.FinishedAt),
	)
	return err
}

// List returns tick events matching the filter in tick order.
func (j *SQLiteJournal) List(ctx context.Context, filter JournalFilter) ([]TickEvent, error) {
	query := `
		SELECT run_id, tick, goal, action, dispatch, energy, battery,
			pos_x, pos_y, orientation, status, error_text, started_at, finished_at
		FROM rover_tick_events
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.RunID != "" {
		addFilter("run_id = ?", filter.RunID)
	}
	if filter.Status != "" {
		addFilter("status = ?", string(filter.Status))
	}
	if filter.Dispatch != "" {
		addFilter("dispatch = ?", string(filter.Dispatch))
	}
	query += where + " ORDER BY rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []TickEvent
	for rows.Next() {
		var (
			event       TickEvent
			dispatch    string
			orientation string
			status      string
			errText     sql.NullString
			started     sql.NullTime
			finished    sql.NullTime
		)
		if err := rows.Scan(
			&event.RunID,
			&event.Tick,
			&event.Goal,
			&event.Action,
			&dispatch,
			&event.Energy,
			&event.Battery,
			&event.Position.X,
			&event.Position.Y,
			&orientation,
			&status,
			&errText,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		event.Dispatch = Dispatch(dispatch)
		event.Orientation = grid.Direction(orientation)
		event.Status = Status(status)
		event.Error = errText.String
		if started.Valid {
			event.StartedAt = started.Time
		}
		if finished.Valid {
			event.FinishedAt = finished.Time
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func ensureJournalSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rover_tick_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			goal TEXT NOT NULL,
			action TEXT NOT NULL,
			dispatch TEXT NOT NULL,
			energy REAL NOT NULL,
			battery REAL NOT NULL,
			pos_x INTEGER NOT NULL,
			pos_y INTEGER NOT NULL,
			orientation TEXT NOT NULL,
			status TEXT NOT NULL,
			error_text TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rover_tick_run ON rover_tick_events(run_id);
		CREATE INDEX IF NOT EXISTS idx_rover_tick_status ON rover_tick_events(status);
	`)
	return err
}
