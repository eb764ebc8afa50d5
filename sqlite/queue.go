package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fwojciec/estate"
)

// Compile-time interface verification.
var _ estate.QueueService = (*QueueService)(nil)

// QueueService implements estate.QueueService using the to_scrape table.
type QueueService struct {
	db *DB
}

// NewQueueService creates a new QueueService.
func NewQueueService(db *DB) *QueueService {
	return &QueueService{db: db}
}

// EnqueueLinks appends links to the end of the queue.
func (s *QueueService) EnqueueLinks(ctx context.Context, site estate.Site, links []estate.Link) error {
	if err := checkSite(site, links); err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	queuedOn := time.Now().UTC().Format(time.RFC3339)
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		var position int
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position), 0) FROM to_scrape WHERE site = ?
		`, string(site)).Scan(&position); err != nil {
			return err
		}
		for _, l := range links {
			position++
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO to_scrape (site, url, position, queued_on) VALUES (?, ?, ?, ?)
				ON CONFLICT (site, url) DO NOTHING
			`, string(site), l.URL, position, queuedOn); err != nil {
				return fmt.Errorf("failed to queue link: %w", err)
			}
		}
		return nil
	})
}

// QueuedLinks returns the queue of site in insertion order.
func (s *QueueService) QueuedLinks(ctx context.Context, site estate.Site) ([]estate.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM to_scrape WHERE site = ? ORDER BY position
	`, string(site))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows, site)
}

// DequeueLinks removes links from the queue. Unknown links are ignored.
func (s *QueueService) DequeueLinks(ctx context.Context, site estate.Site, links []estate.Link) error {
	if err := checkSite(site, links); err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		return dequeue(ctx, tx, site, links)
	})
}

// dequeue deletes links from the queue inside tx.
func dequeue(ctx context.Context, tx *sql.Tx, site estate.Site, links []estate.Link) error {
	if len(links) == 0 {
		return nil
	}
	args := make([]any, 0, len(links)+1)
	args = append(args, string(site))
	for _, l := range links {
		args = append(args, l.URL)
	}
	query := "DELETE FROM to_scrape WHERE site = ? AND url IN (" + placeholders(len(links)) + ")"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to dequeue links: %w", err)
	}
	return nil
}
