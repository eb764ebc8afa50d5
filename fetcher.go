package estate

import "context"

// Fetcher retrieves the HTML of a URL.
// Implementations return EGONE when the resource is permanently absent
// (HTTP 404 or 410); any other error is treated as transient.
type Fetcher interface {
	// Fetch returns the page body decoded to UTF-8.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
