// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package journal keeps a local SQLite log of tracked events so the host API
// can show what a player reported.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ManuGH/smartplayer/internal/persistence/sqlite"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/goccy/go-json"
)

const schemaVersion = 1

// SinkName is the journal's name in metrics and logs.
const SinkName = "journal"

// Journal is a tracking.Sink backed by SQLite.
type Journal struct {
	db *sql.DB
}

var _ tracking.Sink = (*Journal)(nil)

// Open opens or creates the journal at path and migrates its schema.
func Open(path string) (*Journal, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration failed: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	var current int
	if err := j.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS tracking_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id TEXT NOT NULL,
		event TEXT NOT NULL,
		payload TEXT NOT NULL,
		at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tracking_events_player ON tracking_events(player_id, id);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (j *Journal) Name() string { return SinkName }

// Deliver appends rec.
func (j *Journal) Deliver(ctx context.Context, rec tracking.Record) error {
	payload, err := json.Marshal(tracking.Sanitize(rec.Payload))
	if err != nil {
		return fmt.Errorf("journal: encode payload: %w", err)
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO tracking_events (player_id, event, payload, at_ms) VALUES (?, ?, ?, ?)`,
		rec.PlayerID, rec.Event, string(payload), rec.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("journal: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest records of playerID, oldest
// first.
func (j *Journal) Recent(ctx context.Context, playerID string, limit int) ([]tracking.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT player_id, event, payload, at_ms FROM (
			SELECT id, player_id, event, payload, at_ms FROM tracking_events
			WHERE player_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	out := make([]tracking.Record, 0, limit)
	for rows.Next() {
		var (
			rec     tracking.Record
			payload string
			atMS    int64
		)
		if err := rows.Scan(&rec.PlayerID, &rec.Event, &payload, &atMS); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
			return nil, fmt.Errorf("journal: decode payload: %w", err)
		}
		rec.At = time.UnixMilli(atMS).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (j *Journal) Count(ctx context.Context) (int, error) {
	return countEvents(ctx, j.db)
}

func countEvents(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracking_events`).Scan(&n)
	return n, err
}

// Ping checks the database connection.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Verify runs an integrity check over the open pool.
func (j *Journal) Verify(ctx context.Context, mode sqlite.VerifyMode) ([]string, error) {
	return sqlite.Verify(ctx, j.db, mode)
}

// Report is the outcome of Inspect.
type Report struct {
	Problems []string
	// Events is only counted when Problems is empty.
	Events int
}

// Inspect verifies a journal file without opening it for writing or migrating it.
func Inspect(ctx context.Context, path string, mode sqlite.VerifyMode) (Report, error) {
	db, err := sqlite.Open(path, sqlite.InspectConfig())
	if err != nil {
		return Report{}, err
	}
	defer db.Close()

	problems, err := sqlite.Verify(ctx, db, mode)
	if err != nil {
		return Report{}, err
	}
	if len(problems) > 0 {
		return Report{Problems: problems}, nil
	}
	n, err := countEvents(ctx, db)
	if err != nil {
		return Report{}, fmt.Errorf("journal: count events: %w", err)
	}
	return Report{Events: n}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
