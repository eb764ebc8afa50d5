package slog_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/goquery"
	"github.com/fwojciec/estate/mock"
	estateslog "github.com/fwojciec/estate/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRegistry(t *testing.T) {
	t.Parallel()

	t.Run("keeps sitemap sources visible", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		r := estateslog.NewLoggingRegistry(goquery.NewDefaultRegistry(nil), logger)

		morizon, err := r.Get(goquery.Morizon)
		require.NoError(t, err)
		src, ok := morizon.(estate.SitemapSource)
		require.True(t, ok)
		base, _ := src.Sitemap()
		assert.Equal(t, "https://www.morizon.pl", base)

		otodom, err := r.Get(goquery.Otodom)
		require.NoError(t, err)
		_, ok = otodom.(estate.SitemapSource)
		assert.False(t, ok)
		assert.Len(t, r.List(), 3)
	})

	t.Run("passes lookup errors through", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		r := estateslog.NewLoggingRegistry(goquery.NewRegistry(), logger)

		_, err := r.Get("olx")
		assert.Equal(t, estate.ENOTFOUND, estate.ErrorCode(err))
	})
}

func TestLoggingExtractor_Offer(t *testing.T) {
	t.Parallel()

	link := estate.NewLink("gratka", "https://gratka.pl/ob/1")

	t.Run("warns on broken markup", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			SiteFn: func() estate.Site { return "gratka" },
			OfferFn: func(html string, link estate.Link) (*estate.Offer, error) {
				return nil, errors.New("title not found")
			},
		}

		_, err := estateslog.NewLoggingExtractor(inner, logger).Offer("<html></html>", link)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "site=gratka")
		assert.Contains(t, output, "url=https://gratka.pl/ob/1")
	})

	t.Run("logs removed listings at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Extractor{
			SiteFn: func() estate.Site { return "gratka" },
			OfferFn: func(html string, link estate.Link) (*estate.Offer, error) {
				return nil, estate.Errorf(estate.EGONE, "closed")
			},
		}

		_, err := estateslog.NewLoggingExtractor(inner, logger).Offer("<html></html>", link)

		assert.Equal(t, estate.EGONE, estate.ErrorCode(err))
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.NotContains(t, buf.String(), "level=WARN")
	})
}
