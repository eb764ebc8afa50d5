// Package http provides plain HTTP implementations of estate.Fetcher and
// estate.SitemapService for listing sites that render server-side.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/estate"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultUserAgent identifies the harvester to listing sites.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxBodySize caps a single page read.
const maxBodySize = 16 << 20

var _ estate.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages with plain GET requests and decodes them to UTF-8
// using the charset the server or the page declares.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithClient sets the underlying client. Its Timeout is replaced by the
// fetcher's timeout.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	client := &http.Client{}
	if f.client != nil {
		c := *f.client
		client = &c
	}
	client.Timeout = f.timeout
	f.client = client

	return f
}

// Fetch returns the body of url as UTF-8 text. A 404 or 410 response
// returns EGONE. Other non-2xx responses return a transient error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.get(ctx, url, "text/html,application/xhtml+xml")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	r, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", url, err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}

// get issues a GET with the fetcher's headers and checks the status.
// The caller closes the body.
func (f *Fetcher) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, estate.Errorf(estate.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "pl-PL,pl;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, url); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkStatus(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return estate.Errorf(estate.EGONE, "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
