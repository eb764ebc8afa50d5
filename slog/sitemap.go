package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/estate"
)

var _ estate.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService logs each sitemap supplement lookup. A failed lookup
// is logged at warn, since the harvester carries on without the supplement.
type LoggingSitemapService struct {
	next   estate.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next estate.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *estate.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "sitemap discovery",
			"url", baseURL,
			"filtered", filter != nil,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}
