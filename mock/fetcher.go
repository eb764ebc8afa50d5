package mock

import (
	"context"

	"github.com/fwojciec/estate"
)

var _ estate.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of estate.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

// Close calls CloseFn when set.
func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ estate.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of estate.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
