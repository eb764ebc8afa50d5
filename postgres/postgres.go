// Package postgres provides the PostgreSQL implementation of estate.Gateway
// using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/estate"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxConns is the pool size used when DB.MaxConns is zero.
const DefaultMaxConns = 4

// DB represents a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
	dsn  string

	// MaxConns caps the pool. Set before Open.
	MaxConns int32
}

// NewDB creates a new DB for the given connection string.
func NewDB(dsn string) *DB {
	return &DB{dsn: dsn}
}

// Open connects to the database and creates the schema if needed.
func (db *DB) Open(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(db.dsn)
	if err != nil {
		return estate.Errorf(estate.EINVALID, "invalid postgres URL: %v", err)
	}
	cfg.MaxConns = DefaultMaxConns
	if db.MaxConns > 0 {
		cfg.MaxConns = db.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	db.pool = pool

	if err := db.createSchema(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the pool.
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// withTx runs fn in a transaction, committing when fn succeeds and rolling
// back when it fails or panics.
func (db *DB) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()
	return fn(tx)
}

func (db *DB) createSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
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
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT '',
			area DOUBLE PRECISION NOT NULL DEFAULT 0,
			rooms INTEGER NOT NULL DEFAULT 0,
			floor TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			district TEXT NOT NULL DEFAULT '',
			voivodeship TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			geohash TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			attributes JSONB NOT NULL DEFAULT '{}',
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
			position BIGSERIAL,
			queued_on TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (site, url)
		);

		CREATE TABLE IF NOT EXISTS missing_links (
			id BIGSERIAL PRIMARY KEY,
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
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (site, run_date, sequence)
		);
	`)
	return err
}

// checkSite returns EINVALID if any link belongs to another site.
func checkSite(site estate.Site, links []estate.Link) error {
	if site == "" {
		return estate.Errorf(estate.EINVALID, "site required")
	}
	for _, l := range links {
		if l.Site != site {
			return estate.Errorf(estate.EINVALID, "link %s belongs to %q, not %q", l.URL, l.Site, site)
		}
	}
	return nil
}

// scanLinks reads a single url column into links of site.
func scanLinks(rows pgx.Rows, site estate.Site) ([]estate.Link, error) {
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	links := make([]estate.Link, len(urls))
	for i, u := range urls {
		links[i] = estate.Link{Site: site, URL: u}
	}
	return links, nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
