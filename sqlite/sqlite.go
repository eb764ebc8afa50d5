// Package sqlite provides the SQLite implementation of estate.Gateway.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; transactions hold the only connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// A second harvester process on the same file waits instead of failing.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL lets the stages command read while a run is writing.
	// In-memory databases have no WAL.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction. With a single connection every other
// statement waits until the transaction ends, so callers must run all of
// its statements through tx.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, opts)
}

// withTx runs fn in a transaction, committing when fn succeeds.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Stats returns database statistics.
func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// createSchema creates the database tables if they don't exist.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS active_links (
			site TEXT NOT NULL,
			url TEXT NOT NULL,
			added_on TEXT NOT NULL,
			PRIMARY KEY (site, url)
		);

		CREATE TABLE IF NOT EXISTS offers (
			id TEXT PRIMARY KEY,
			site TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			price REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT '',
			area REAL NOT NULL DEFAULT 0,
			rooms INTEGER NOT NULL DEFAULT 0,
			floor TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			district TEXT NOT NULL DEFAULT '',
			voivodeship TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			latitude REAL NOT NULL DEFAULT 0,
			longitude REAL NOT NULL DEFAULT 0,
			geohash TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			attributes TEXT NOT NULL DEFAULT '{}',
			content_hash TEXT NOT NULL DEFAULT '',
			active TEXT NOT NULL DEFAULT 'Yes' CHECK (active IN ('Yes', 'No')),
			scrape_date TEXT NOT NULL,
			inactive_date TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_offers_site_url ON offers(site, url);
		CREATE INDEX IF NOT EXISTS idx_offers_site_active ON offers(site, active);

		CREATE TABLE IF NOT EXISTS to_scrape (
			site TEXT NOT NULL,
			url TEXT NOT NULL,
			position INTEGER NOT NULL,
			queued_on TEXT NOT NULL,
			PRIMARY KEY (site, url)
		);

		CREATE TABLE IF NOT EXISTS missing_links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site TEXT NOT NULL,
			url TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('page', 'offer', 'detail')),
			recorded_on TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_missing_links_site ON missing_links(site, recorded_on);

		CREATE TABLE IF NOT EXISTS process_stage (
			site TEXT NOT NULL,
			run_date TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			scraping_offers TEXT NOT NULL DEFAULT 'F' CHECK (scraping_offers IN ('T', 'F')),
			scraping_details TEXT NOT NULL DEFAULT 'F' CHECK (scraping_details IN ('T', 'F')),
			created_at TEXT NOT NULL,
			PRIMARY KEY (site, run_date, sequence)
		);
	`

	_, err := db.db.Exec(schema)
	return err
}
