// Package storage persists deployment history in a local SQLite
// database.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path and runs migrations.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deployments (
		id           TEXT PRIMARY KEY,
		environment  TEXT NOT NULL,
		theme_id     INTEGER NOT NULL,
		theme_name   TEXT NOT NULL DEFAULT '',
		version      TEXT NOT NULL DEFAULT '',
		backup_id    INTEGER NOT NULL DEFAULT 0,
		backup_name  TEXT NOT NULL DEFAULT '',
		succeeded    INTEGER NOT NULL,
		failed_stage TEXT NOT NULL DEFAULT '',
		error        TEXT NOT NULL DEFAULT '',
		duration_ms  INTEGER NOT NULL DEFAULT 0,
		started_at   DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deployments_started ON deployments(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_deployments_env ON deployments(environment, started_at DESC);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
