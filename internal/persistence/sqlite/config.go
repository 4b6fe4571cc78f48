// Package sqlite opens modernc.org/sqlite pools for the tracking journal.
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Config tunes a pool.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
	// ReadOnly opens the file with mode=ro and leaves its journal mode alone.
	// Inspection tools use it so a damaged file is never written.
	ReadOnly bool
}

// DefaultConfig suits the tracking journal: one writer (the dispatcher) and
// a handful of API readers.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
	}
}

// InspectConfig opens a single read-only connection.
func InspectConfig() Config {
	return Config{BusyTimeout: 2 * time.Second, MaxOpenConns: 1, ReadOnly: true}
}

// dsn renders the connection string. modernc.org/sqlite applies every
// _pragma parameter on each new connection of the pool.
func dsn(path string, cfg Config) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	if cfg.ReadOnly {
		q.Set("mode", "ro")
	} else {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	return "file:" + path + "?" + q.Encode()
}

// Open returns a pinged pool for path.
func Open(path string, cfg Config) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty path")
	}
	db, err := sql.Open("sqlite", dsn(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return db, nil
}
