package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// Times and durations are stored as integer nanoseconds so ordering and
// range filters stay exact.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		at          INTEGER NOT NULL,
		channel     TEXT    NOT NULL,
		chat_id     TEXT    NOT NULL,
		message_id  TEXT    NOT NULL DEFAULT '',
		sender_id   TEXT    NOT NULL DEFAULT '',
		outcome     TEXT    NOT NULL,
		audio_ns    INTEGER NOT NULL DEFAULT 0,
		elapsed_ns  INTEGER NOT NULL DEFAULT 0,
		text_length INTEGER NOT NULL DEFAULT 0,
		text        TEXT    NOT NULL DEFAULT '',
		error_kind  TEXT    NOT NULL DEFAULT '',
		error       TEXT    NOT NULL DEFAULT '',
		reply_error TEXT    NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_events_at ON events(at)`,

	`CREATE INDEX IF NOT EXISTS idx_events_chat ON events(channel, chat_id, at)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}
	if current > schemaVersion {
		return fmt.Errorf("sqlite: database schema v%d is newer than supported v%d", current, schemaVersion)
	}
	if current == schemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}
	return tx.Commit()
}
