package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/mock"
	estateslog "github.com/fwojciec/estate/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery with count and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		var gotFilter *estate.URLFilter
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, filter *estate.URLFilter) ([]string, error) {
				gotFilter = filter
				return []string{"https://www.morizon.pl/oferta/a", "https://www.morizon.pl/oferta/b"}, nil
			},
		}
		filter := estate.MustURLFilter([]string{`/oferta/`}, nil)

		svc := estateslog.NewLoggingSitemapService(inner, logger)
		urls, err := svc.DiscoverURLs(context.Background(), "https://www.morizon.pl", filter)

		require.NoError(t, err)
		assert.Len(t, urls, 2)
		assert.Same(t, filter, gotFilter)
		output := buf.String()
		assert.Contains(t, output, "sitemap discovery")
		assert.Contains(t, output, "url=https://www.morizon.pl")
		assert.Contains(t, output, "count=2")
		assert.Contains(t, output, "filtered=true")
		assert.Contains(t, output, "level=INFO")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, filter *estate.URLFilter) ([]string, error) {
				return nil, errors.New("connection failed")
			},
		}

		svc := estateslog.NewLoggingSitemapService(inner, logger)
		_, err := svc.DiscoverURLs(context.Background(), "https://www.morizon.pl", nil)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "filtered=false")
		assert.Contains(t, output, "err=\"connection failed\"")
	})
}
