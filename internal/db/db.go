// Package db provides SQLite database access for Floorline.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DB wraps the sql handle together with the logger shared by repositories.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// Options configures the database handle.
type Options struct {
	// Path is the sqlite file path. ":memory:" opens an in-memory database.
	Path string

	// BusyTimeoutMs is how long sqlite waits on a locked database.
	BusyTimeoutMs int

	Logger zerolog.Logger
}

// Open opens (creating if needed) the sqlite database and applies the
// schema migrations.
func Open(opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if opts.BusyTimeoutMs <= 0 {
		opts.BusyTimeoutMs = 5000
	}
	if opts.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		opts.Path, opts.BusyTimeoutMs)
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under the TUI's concurrent save commands.
	handle.SetMaxOpenConns(1)

	db := &DB{DB: handle, logger: opts.Logger}
	if err := db.migrate(context.Background()); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// Transaction runs fn inside a transaction, rolling back on error.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Warn().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS equipment (
			id TEXT PRIMARY KEY,
			tag TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			ord INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			number TEXT NOT NULL UNIQUE,
			notes TEXT NOT NULL DEFAULT '',
			created_on TEXT NOT NULL,
			modified_on TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS operations (
			id TEXT PRIMARY KEY,
			equipment_id TEXT NOT NULL REFERENCES equipment(id),
			batch_id TEXT REFERENCES batches(id),
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'Production',
			description TEXT NOT NULL DEFAULT '',
			created_on TEXT NOT NULL,
			modified_on TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_span
			ON operations(start_time, end_time)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			type TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)`,
	}
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration: %w", err)
			}
		}
		return nil
	})
}
