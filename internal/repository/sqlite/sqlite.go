// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// The bot is a single-process deployment with a small, append-mostly data
// set, so an embedded database is the right shape. modernc.org/sqlite is a
// pure Go translation of SQLite, so no CGo and no C toolchain needed, and
// ":memory:" gives tests a throwaway database.
//
// Schema evolution policy: additive, nullable columns only. New optional
// result fields get an addColumnIfNotExists call in migrate(), never a
// destructive ALTER; rows written by an older binary stay valid.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces for accounts, tags and results.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for a throwaway in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets ranking reads proceed while a sync pass is writing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// discord_id is indexed but not unique: the one-link-per-identity rule
	// lives in the service layer, which grants the maintainer an exception
	// for operating test fixtures.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			uid        TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			discord_id TEXT NOT NULL,
			ape_key    TEXT NOT NULL,
			is_active  INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_discord_id ON accounts(discord_id);
	`)
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}

	// do_not_track arrived after the first deployments, added here instead
	// of in CREATE TABLE so existing databases pick it up.
	if err := db.addColumnIfNotExists("accounts", "do_not_track",
		"INTEGER NOT NULL DEFAULT 0"); err != nil {
		return fmt.Errorf("adding do_not_track to accounts: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tags (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			uid  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tags_uid ON tags(uid);
	`)
	if err != nil {
		return fmt.Errorf("creating tags table: %w", err)
	}

	// Everything beyond (id, uid) is nullable: the upstream payload shape
	// has drifted over the years and old rows must keep scanning cleanly.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			id                      TEXT PRIMARY KEY,
			uid                     TEXT NOT NULL,
			wpm                     REAL,
			raw_wpm                 REAL,
			char_stats              TEXT,
			acc                     REAL,
			mode                    TEXT,
			mode2                   TEXT,
			quote_length            INTEGER,
			timestamp               INTEGER,
			restart_count           INTEGER,
			incomplete_test_seconds REAL,
			afk_duration            REAL,
			test_duration           REAL,
			tags                    TEXT,
			consistency             REAL,
			key_consistency         REAL,
			language                TEXT,
			bailed_out              INTEGER,
			blind_mode              INTEGER,
			lazy_mode               INTEGER,
			funbox                  TEXT,
			difficulty              TEXT,
			numbers                 INTEGER,
			punctuation             INTEGER,
			is_pb                   INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_results_uid_timestamp ON results(uid, timestamp);
		CREATE INDEX IF NOT EXISTS idx_results_timestamp ON results(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("creating results table: %w", err)
	}

	// timestamp_ms arrived after the first deployments: the sync floor
	// compares milliseconds upstream, and the second-truncated timestamp
	// column cannot reconstruct them. Rows from before the column (or
	// synthesized rows without one) fall back to timestamp * 1000.
	if err := db.addColumnIfNotExists("results", "timestamp_ms", "INTEGER"); err != nil {
		return fmt.Errorf("adding timestamp_ms to results: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already
// exist, making ALTER TABLE migrations idempotent.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
