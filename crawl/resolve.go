package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/estate"
)

// DefaultMaxRetries is the number of retry rounds after the first attempt.
const DefaultMaxRetries = 5

// DefaultRetryDelays returns the pauses before successive retry rounds: 1s, 2s, 4s.
// Rounds past the last delay reuse it.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	// MaxWorkers bounds the concurrency of each round.
	// Zero or less uses DefaultMaxWorkers.
	MaxWorkers int

	// MaxRetries is the number of rounds run after the first one, each over
	// the links that failed in the round before. Negative means none.
	MaxRetries int

	// RoundDelays are the pauses before retry rounds. Nil means no pause.
	RoundDelays []time.Duration

	// NewPool opens the pool of each round. Nil uses NewErrgroupPool.
	NewPool PoolFactory

	// Logger receives round progress. Nil discards it.
	Logger *slog.Logger
}

// Resolution is the outcome of Resolve.
type Resolution[T any] struct {
	// Succeeded holds successful results grouped by the round they
	// succeeded in: first-round successes, then second-round, and so on.
	// Within a round the input order is kept, but overall it is not.
	Succeeded []estate.Result[T]

	// Gone holds links that failed permanently and were not retried.
	Gone []estate.Link

	// Unresolved holds links still failing after the last round.
	// They are excluded from Succeeded.
	Unresolved []estate.Link

	// Errors holds the last error seen for each Unresolved or Gone link.
	Errors map[estate.Link]error

	// Attempts counts fetch calls per link.
	Attempts map[estate.Link]int

	// Rounds is the number of rounds run.
	Rounds int
}

// Values returns the successful values in Succeeded order.
func (r *Resolution[T]) Values() []T {
	values := make([]T, len(r.Succeeded))
	for i, res := range r.Succeeded {
		values[i] = res.Value
	}
	return values
}

// Resolve fetches every link, then resubmits only the transiently failed
// ones in up to MaxRetries further rounds. Rounds run one after another.
// Failures with code EGONE are not retried. Links that still fail once
// the rounds are used up are reported in Unresolved; they are an accepted
// loss that the caller has to record.
//
// A cancelled context stops new rounds from starting and leaves the
// remaining links unresolved.
func Resolve[T any](ctx context.Context, links []estate.Link, fetchOne FetchFunc[T], opts ResolveOptions) *Resolution[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxRetries := max(opts.MaxRetries, 0)

	res := &Resolution[T]{
		Errors:   make(map[estate.Link]error),
		Attempts: make(map[estate.Link]int, len(links)),
	}

	pending := links
	for round := 0; len(pending) > 0 && round <= maxRetries; round++ {
		if round > 0 {
			logger.Info("retry round", "round", round, "links", len(pending))
			if err := pause(ctx, roundDelay(opts.RoundDelays, round)); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		res.Rounds++
		results := FetchBatchWith(ctx, opts.NewPool, pending, opts.MaxWorkers, fetchOne)

		var failed []estate.Link
		for _, r := range results {
			res.Attempts[r.Link]++
			switch {
			case r.OK():
				res.Succeeded = append(res.Succeeded, r)
				delete(res.Errors, r.Link)
			case estate.IsPermanent(r.Err):
				res.Gone = append(res.Gone, r.Link)
				res.Errors[r.Link] = r.Err
			default:
				failed = append(failed, r.Link)
				res.Errors[r.Link] = r.Err
			}
		}
		pending = failed
	}

	res.Unresolved = pending
	if len(res.Unresolved) > 0 {
		logger.Warn("links unresolved after retries",
			"count", len(res.Unresolved),
			"rounds", res.Rounds,
		)
	}
	return res
}

// roundDelay returns the pause before retry round n (n >= 1).
func roundDelay(delays []time.Duration, n int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	return delays[min(n-1, len(delays)-1)]
}

// pause sleeps for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
