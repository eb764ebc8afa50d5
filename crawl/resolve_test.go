package crawl_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// attemptCounter counts fetch calls per link across concurrent workers.
type attemptCounter struct {
	mu sync.Mutex
	n  map[estate.Link]int
}

func newAttemptCounter() *attemptCounter {
	return &attemptCounter{n: make(map[estate.Link]int)}
}

func (c *attemptCounter) next(l estate.Link) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[l]++
	return c.n[l]
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("resolves links succeeding on a later attempt", func(t *testing.T) {
		t.Parallel()

		links := makeLinks("x", 25)
		need := make(map[estate.Link]int, len(links))
		for i, l := range links {
			need[l] = i%crawl.DefaultMaxRetries + 1
		}
		counter := newAttemptCounter()

		res := crawl.Resolve(context.Background(), links, func(_ context.Context, l estate.Link) (string, error) {
			if counter.next(l) < need[l] {
				return "", errors.New("HTTP 503")
			}
			return l.URL, nil
		}, crawl.ResolveOptions{MaxWorkers: 4, MaxRetries: crawl.DefaultMaxRetries})

		assert.Empty(t, res.Unresolved)
		assert.ElementsMatch(t, links, linksOf(res.Succeeded))
		for _, l := range links {
			assert.Equal(t, need[l], res.Attempts[l], l.URL)
		}
		assert.Equal(t, crawl.DefaultMaxRetries, res.Rounds)
	})

	t.Run("reports every link unresolved when fetch always fails", func(t *testing.T) {
		t.Parallel()

		links := makeLinks("x", 12)
		res := crawl.Resolve(context.Background(), links, func(context.Context, estate.Link) (int, error) {
			return 0, errors.New("dial tcp: i/o timeout")
		}, crawl.ResolveOptions{MaxWorkers: 3, MaxRetries: 5})

		assert.Empty(t, res.Succeeded)
		assert.Len(t, res.Unresolved, len(links))
		assert.Equal(t, 6, res.Rounds)
		for _, l := range links {
			assert.Equal(t, 6, res.Attempts[l])
			assert.Error(t, res.Errors[l])
		}
	})

	t.Run("resubmits only failed links", func(t *testing.T) {
		t.Parallel()

		links := makeLinks("x", 4)
		counter := newAttemptCounter()
		res := crawl.Resolve(context.Background(), links, func(_ context.Context, l estate.Link) (int, error) {
			if l == links[2] && counter.next(l) == 1 {
				return 0, errors.New("reset")
			}
			return 1, nil
		}, crawl.ResolveOptions{MaxRetries: 5})

		assert.Equal(t, 1, res.Attempts[links[0]])
		assert.Equal(t, 2, res.Attempts[links[2]])
		assert.Equal(t, 2, res.Rounds)
	})

	t.Run("orders successes by round not input", func(t *testing.T) {
		t.Parallel()

		links := makeLinks("x", 3)
		counter := newAttemptCounter()
		res := crawl.Resolve(context.Background(), links, func(_ context.Context, l estate.Link) (string, error) {
			if l == links[0] && counter.next(l) == 1 {
				return "", errors.New("reset")
			}
			return l.URL, nil
		}, crawl.ResolveOptions{MaxWorkers: 1, MaxRetries: 1})

		assert.Equal(t, []estate.Link{links[1], links[2], links[0]}, linksOf(res.Succeeded))
		assert.Equal(t, []string{"/offer/1", "/offer/2", "/offer/0"}, res.Values())
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		t.Parallel()

		links := makeLinks("x", 2)
		res := crawl.Resolve(context.Background(), links, func(_ context.Context, l estate.Link) (int, error) {
			if l == links[0] {
				return 0, estate.Errorf(estate.EGONE, "listing removed")
			}
			return 1, nil
		}, crawl.ResolveOptions{MaxRetries: 5})

		assert.Equal(t, []estate.Link{links[0]}, res.Gone)
		assert.Empty(t, res.Unresolved)
		assert.Equal(t, 1, res.Attempts[links[0]])
		assert.Equal(t, 1, res.Rounds)
	})

	t.Run("runs a single round without retries", func(t *testing.T) {
		t.Parallel()

		links := makeLinks("x", 2)
		res := crawl.Resolve(context.Background(), links, func(context.Context, estate.Link) (int, error) {
			return 0, errors.New("fail")
		}, crawl.ResolveOptions{MaxRetries: 0})

		assert.Equal(t, 1, res.Rounds)
		assert.Len(t, res.Unresolved, 2)
	})

	t.Run("stops starting rounds when context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		links := makeLinks("x", 3)
		res := crawl.Resolve(ctx, links, func(context.Context, estate.Link) (int, error) {
			cancel()
			return 0, errors.New("fail")
		}, crawl.ResolveOptions{MaxRetries: 5, RoundDelays: []time.Duration{time.Hour}})

		assert.Equal(t, 1, res.Rounds)
		assert.Len(t, res.Unresolved, 3)
	})

	t.Run("waits between rounds", func(t *testing.T) {
		t.Parallel()

		links := makeLinks("x", 1)
		counter := newAttemptCounter()
		begin := time.Now()
		res := crawl.Resolve(context.Background(), links, func(_ context.Context, l estate.Link) (int, error) {
			if counter.next(l) < 3 {
				return 0, errors.New("fail")
			}
			return 1, nil
		}, crawl.ResolveOptions{MaxRetries: 5, RoundDelays: []time.Duration{10 * time.Millisecond}})

		require.Empty(t, res.Unresolved)
		assert.GreaterOrEqual(t, time.Since(begin), 20*time.Millisecond)
	})
}

func TestDefaultRetryDelays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, crawl.DefaultRetryDelays())
}

func linksOf[T any](results []estate.Result[T]) []estate.Link {
	out := make([]estate.Link, len(results))
	for i, r := range results {
		out[i] = r.Link
	}
	return out
}
