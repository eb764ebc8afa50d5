package crawl

import (
	"context"

	"github.com/fwojciec/estate"
)

// DefaultMaxWorkers is the worker count used when none is configured.
const DefaultMaxWorkers = 20

// FetchFunc produces a value for one link.
type FetchFunc[T any] func(ctx context.Context, link estate.Link) (T, error)

// FetchBatch runs fetchOne over batch on a pool of min(maxWorkers,
// len(batch)) workers opened for this call. See FetchBatchWith.
func FetchBatch[T any](ctx context.Context, batch []estate.Link, maxWorkers int, fetchOne FetchFunc[T]) []estate.Result[T] {
	return FetchBatchWith(ctx, NewErrgroupPool, batch, maxWorkers, fetchOne)
}

// FetchBatchWith runs fetchOne over batch on a pool opened from newPool and
// returns one result per link at the link's index. Errors and panics in
// fetchOne become failures for that index only; the call always returns a
// full-length result. A maxWorkers of zero or less uses DefaultMaxWorkers.
func FetchBatchWith[T any](ctx context.Context, newPool PoolFactory, batch []estate.Link, maxWorkers int, fetchOne FetchFunc[T]) []estate.Result[T] {
	results := make([]estate.Result[T], len(batch))
	if len(batch) == 0 {
		return results
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	if newPool == nil {
		newPool = NewErrgroupPool
	}

	pool := newPool(ctx, min(maxWorkers, len(batch)))
	for i, link := range batch {
		pool.Go(func(ctx context.Context) {
			results[i] = fetchContained(ctx, link, fetchOne)
		})
	}
	pool.Wait()

	return results
}

// fetchContained calls fetchOne and turns any error or panic into a
// failure result.
func fetchContained[T any](ctx context.Context, link estate.Link, fetchOne FetchFunc[T]) (res estate.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = estate.Failure[T](link, estate.Errorf(estate.EINTERNAL, "panic fetching %s: %v", link.URL, r))
		}
	}()

	v, err := fetchOne(ctx, link)
	if err != nil {
		return estate.Failure[T](link, err)
	}
	return estate.Success(link, v)
}
