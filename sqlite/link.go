package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fwojciec/estate"
)

// Compile-time interface verification.
var _ estate.LinkService = (*LinkService)(nil)

// LinkService implements estate.LinkService using SQLite.
type LinkService struct {
	db *DB
}

// NewLinkService creates a new LinkService.
func NewLinkService(db *DB) *LinkService {
	return &LinkService{db: db}
}

// ActiveLinks returns the inventory of site ordered by URL.
func (s *LinkService) ActiveLinks(ctx context.Context, site estate.Site) ([]estate.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM active_links WHERE site = ? ORDER BY url
	`, string(site))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows, site)
}

// ApplyLinkDiff applies diff in a single transaction.
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

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range diff.ToRemove {
			if _, err := tx.ExecContext(ctx, `DELETE FROM active_links WHERE site = ? AND url = ?`, string(site), l.URL); err != nil {
				return fmt.Errorf("failed to remove link: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE offers SET active = 'No', inactive_date = ?
				WHERE site = ? AND url = ? AND active = 'Yes'
			`, date, string(site), l.URL); err != nil {
				return fmt.Errorf("failed to deactivate offers: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM to_scrape WHERE site = ? AND url = ?`, string(site), l.URL); err != nil {
				return fmt.Errorf("failed to dequeue removed link: %w", err)
			}
		}
		for _, l := range diff.ToAdd {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO active_links (site, url, added_on) VALUES (?, ?, ?)
				ON CONFLICT (site, url) DO NOTHING
			`, string(site), l.URL, date); err != nil {
				return fmt.Errorf("failed to add link: %w", err)
			}
		}
		return nil
	})
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
func scanLinks(rows *sql.Rows, site estate.Site) ([]estate.Link, error) {
	links := []estate.Link{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		links = append(links, estate.Link{Site: site, URL: u})
	}
	return links, rows.Err()
}
