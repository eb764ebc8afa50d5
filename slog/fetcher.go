// Package slog provides logging decorators for the estate services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/estate"
)

var _ estate.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   estate.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next estate.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the request. Pages that
// are gone are logged at debug level since they are an expected outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if estate.ErrorCode(err) == estate.EGONE {
			level = slog.LevelDebug
		}
		f.logger.Log(ctx, level, "fetch",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
