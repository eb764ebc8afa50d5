package postgres

import (
	"context"
	"fmt"

	"github.com/fwojciec/estate"
	"github.com/jackc/pgx/v5"
)

var _ estate.MissingService = (*MissingService)(nil)

// MissingService implements estate.MissingService using PostgreSQL.
type MissingService struct {
	db *DB
}

// NewMissingService creates a new MissingService.
func NewMissingService(db *DB) *MissingService {
	return &MissingService{db: db}
}

// RecordMissing copies one row per link into missing_links.
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

	rows := make([][]any, len(links))
	for i, l := range links {
		rows[i] = []any{string(site), l.URL, string(kind), date}
	}
	return s.db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"missing_links"},
			[]string{"site", "url", "kind", "recorded_on"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to record missing links: %w", err)
		}
		return nil
	})
}

// MissingLinks returns links recorded as missing for site on date.
func (s *MissingService) MissingLinks(ctx context.Context, site estate.Site, kind estate.MissingKind, date string) ([]estate.Link, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT url FROM missing_links WHERE site = $1 AND kind = $2 AND recorded_on = $3 ORDER BY id
	`, string(site), string(kind), date)
	if err != nil {
		return nil, err
	}
	return scanLinks(rows, site)
}
