// Package rod provides an estate.Fetcher that renders pages in headless
// Chrome, for listing sites that build their result pages in JavaScript.
package rod

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/estate"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds one page render.
const DefaultFetchTimeout = 30 * time.Second

var _ estate.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML. It is safe for concurrent use.
type Fetcher struct {
	browser  *browser
	timeout  time.Duration
	maxPages int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the timeout for one page.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxPages sets how many pages a browser renders before it is
// replaced. Zero disables recycling.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// NewFetcher launches a headless Chrome. Close must be called when the
// Fetcher is no longer needed.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	b, err := newBrowser(f.maxPages)
	if err != nil {
		return nil, err
	}
	f.browser = b
	return f, nil
}

// Fetch navigates to url and returns the HTML after the load event. A 404
// or 410 document response returns EGONE.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	br, err := f.browser.acquire()
	if err != nil {
		return "", err
	}
	defer f.browser.release(br)

	page, err := br.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()
	page = page.Context(ctx)

	status := documentStatus(page)

	if err := page.Navigate(url); err != nil {
		return "", contextErr(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", contextErr(ctx, err)
	}
	if code := status(); code == http.StatusNotFound || code == http.StatusGone {
		return "", estate.Errorf(estate.EGONE, "HTTP %d for %s", code, url)
	}

	html, err := page.HTML()
	if err != nil {
		return "", contextErr(ctx, err)
	}
	return html, nil
}

// documentStatus records the HTTP status of the page's main document. The
// returned func reports zero until the response has been seen.
func documentStatus(page *rod.Page) func() int {
	var mu sync.Mutex
	var code int
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		mu.Lock()
		code = e.Response.Status
		mu.Unlock()
		return true
	})
	go wait()

	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return code
	}
}

// contextErr prefers the context's error so callers can match
// context.Canceled and context.DeadlineExceeded.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return errors.Join(ctxErr, err)
	}
	return err
}

// Close shuts down the browser.
func (f *Fetcher) Close() error {
	return f.browser.close()
}

// LauncherPID returns the process ID of the current browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.browser.launcherPID()
}
