// Package db provides database access and persistence functionality.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Database wraps the SQLite database connection.
type Database struct {
	db *sql.DB
}

// NewDatabase creates a new database connection.
func NewDatabase(path string) (*Database, error) {
	// SQLite connection parameters:
	// - _journal_mode=WAL: Write-Ahead Logging for concurrent read/write
	// - _busy_timeout=5000: Wait up to 5 seconds when database is locked
	// - _synchronous=NORMAL: Balance between safety and performance
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{db: db}, nil
}

// Initialize creates the required database schema tables.
func (d *Database) Initialize() error {
	schema := `
	-- game_cache table: one row per Steam user, replaced on every fetch
	CREATE TABLE IF NOT EXISTS game_cache (
		steam_id TEXT PRIMARY KEY,
		games TEXT NOT NULL,
		game_count INTEGER NOT NULL DEFAULT 0,
		cached_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_game_cache_cached_at ON game_cache(cached_at);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// DB returns the underlying sql.DB connection.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Ping verifies the database connection is alive.
func (d *Database) Ping() error {
	return d.db.Ping()
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}
