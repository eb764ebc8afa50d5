package postgres

import (
	"context"
	"fmt"

	"github.com/fwojciec/estate"
	"github.com/jackc/pgx/v5"
)

var _ estate.QueueService = (*QueueService)(nil)

// QueueService implements estate.QueueService using the to_scrape table.
// Insertion order comes from the position sequence.
type QueueService struct {
	db *DB
}

// NewQueueService creates a new QueueService.
func NewQueueService(db *DB) *QueueService {
	return &QueueService{db: db}
}

// EnqueueLinks appends links to the end of the queue. Links already queued
// keep their position.
func (s *QueueService) EnqueueLinks(ctx context.Context, site estate.Site, links []estate.Link) error {
	if err := checkSite(site, links); err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO to_scrape (site, url)
		SELECT $1, u FROM unnest($2::text[]) WITH ORDINALITY AS t(u, n) ORDER BY n
		ON CONFLICT (site, url) DO NOTHING
	`, string(site), estate.URLs(links))
	if err != nil {
		return fmt.Errorf("failed to queue links: %w", err)
	}
	return nil
}

// QueuedLinks returns the queue of site in insertion order.
func (s *QueueService) QueuedLinks(ctx context.Context, site estate.Site) ([]estate.Link, error) {
	rows, err := s.db.pool.Query(ctx, `SELECT url FROM to_scrape WHERE site = $1 ORDER BY position`, string(site))
	if err != nil {
		return nil, err
	}
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
	return s.db.withTx(ctx, func(tx pgx.Tx) error {
		return dequeue(ctx, tx, site, links)
	})
}

func dequeue(ctx context.Context, tx pgx.Tx, site estate.Site, links []estate.Link) error {
	if len(links) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM to_scrape WHERE site = $1 AND url = ANY($2)`, string(site), estate.URLs(links)); err != nil {
		return fmt.Errorf("failed to dequeue links: %w", err)
	}
	return nil
}
