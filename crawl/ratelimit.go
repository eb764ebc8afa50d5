package crawl

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/estate"
	"golang.org/x/time/rate"
)

var _ estate.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-host rate limiting using token buckets, so a
// pool of workers can still crawl several sites at full speed while each
// listing portal sees at most rps requests per second.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// to each host, with a burst of 1. An rps of zero or less disables limiting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if d.rps <= 0 {
		return ctx.Err()
	}

	domain = strings.ToLower(domain)
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

var _ estate.Fetcher = (*RateLimitedFetcher)(nil)

// RateLimitedFetcher waits on a DomainLimiter for the URL's host before
// each fetch.
type RateLimitedFetcher struct {
	next    estate.Fetcher
	limiter estate.DomainLimiter
}

// NewRateLimitedFetcher wraps next with per-host rate limiting.
func NewRateLimitedFetcher(next estate.Fetcher, limiter estate.DomainLimiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{next: next, limiter: limiter}
}

// Fetch waits for the host's turn, then delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", estate.Errorf(estate.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return "", err
	}
	return f.next.Fetch(ctx, rawURL)
}

// Close closes the wrapped fetcher.
func (f *RateLimitedFetcher) Close() error {
	return f.next.Close()
}
