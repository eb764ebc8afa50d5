package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fwojciec/estate"
)

// Compile-time interface verification.
var _ estate.MissingService = (*MissingService)(nil)

// MissingService implements estate.MissingService using SQLite.
type MissingService struct {
	db *DB
}

// NewMissingService creates a new MissingService.
func NewMissingService(db *DB) *MissingService {
	return &MissingService{db: db}
}

// RecordMissing stores one row per link.
func (s *MissingService) RecordMissing(ctx context.Context, site estate.Site, kind estate.MissingKind, links []estate.Link, date string) error {
	switch kind {
	case estate.MissingPage, estate.MissingOffer, estate.MissingDetail:
	default:
		return estate.Errorf(estate.EINVALID, "unknown missing link kind %q", kind)
	}
	if err := checkSite(site, links); err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range links {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO missing_links (site, url, kind, recorded_on) VALUES (?, ?, ?, ?)
			`, string(site), l.URL, string(kind), date); err != nil {
				return fmt.Errorf("failed to record missing link: %w", err)
			}
		}
		return nil
	})
}

// MissingLinks returns links recorded as missing for site on date.
func (s *MissingService) MissingLinks(ctx context.Context, site estate.Site, kind estate.MissingKind, date string) ([]estate.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM missing_links WHERE site = ? AND kind = ? AND recorded_on = ? ORDER BY id
	`, string(site), string(kind), date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows, site)
}
