package mock

import (
	"context"

	"github.com/fwojciec/estate"
)

var _ estate.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of estate.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *estate.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *estate.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
