package postgres

import (
	"context"
	"fmt"

	"github.com/fwojciec/estate"
	"github.com/jackc/pgx/v5"
)

var _ estate.LinkService = (*LinkService)(nil)

// LinkService implements estate.LinkService using PostgreSQL.
type LinkService struct {
	db *DB
}

// NewLinkService creates a new LinkService.
func NewLinkService(db *DB) *LinkService {
	return &LinkService{db: db}
}

// ActiveLinks returns the inventory of site ordered by URL.
func (s *LinkService) ActiveLinks(ctx context.Context, site estate.Site) ([]estate.Link, error) {
	rows, err := s.db.pool.Query(ctx, `SELECT url FROM active_links WHERE site = $1 ORDER BY url`, string(site))
	if err != nil {
		return nil, err
	}
	return scanLinks(rows, site)
}

// ApplyLinkDiff sends the removal and insertion statements as one batch
// inside a transaction.
func (s *LinkService) ApplyLinkDiff(ctx context.Context, site estate.Site, diff estate.LinkDiff, date string) error {
	if err := checkSite(site, diff.ToAdd); err != nil {
		return err
	}
	if err := checkSite(site, diff.ToRemove); err != nil {
		return err
	}
	if diff.Empty() {
		return nil
	}

	removed := estate.URLs(diff.ToRemove)
	added := estate.URLs(diff.ToAdd)

	b := &pgx.Batch{}
	if len(removed) > 0 {
		b.Queue(`DELETE FROM active_links WHERE site = $1 AND url = ANY($2)`, string(site), removed)
		b.Queue(`UPDATE offers SET active = 'No', inactive_date = $3
			WHERE site = $1 AND url = ANY($2) AND active = 'Yes'`, string(site), removed, date)
		b.Queue(`DELETE FROM to_scrape WHERE site = $1 AND url = ANY($2)`, string(site), removed)
	}
	if len(added) > 0 {
		b.Queue(`INSERT INTO active_links (site, url, added_on)
			SELECT $1, u, $3 FROM unnest($2::text[]) AS u
			ON CONFLICT (site, url) DO NOTHING`, string(site), added, date)
	}

	return s.db.withTx(ctx, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("failed to apply link diff: %w", err)
		}
		return nil
	})
}
