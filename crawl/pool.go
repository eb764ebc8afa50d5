package crawl

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs tasks on a bounded number of goroutines. A pool is
// opened for one batch: Go schedules its tasks, Wait blocks until all of
// them returned, and the pool is not reused afterwards.
type WorkerPool interface {
	Go(task func(ctx context.Context))
	Wait()
}

// PoolFactory opens a WorkerPool running at most size tasks at once.
type PoolFactory func(ctx context.Context, size int) WorkerPool

// Ensure errgroupPool implements WorkerPool at compile time.
var _ WorkerPool = (*errgroupPool)(nil)

// errgroupPool is a WorkerPool backed by errgroup.Group with a limit.
// Tasks never return errors, so one failing item cannot cancel its siblings.
type errgroupPool struct {
	g   *errgroup.Group
	ctx context.Context
}

// NewErrgroupPool opens a WorkerPool backed by golang.org/x/sync/errgroup.
func NewErrgroupPool(ctx context.Context, size int) WorkerPool {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(size, 1))
	return &errgroupPool{g: g, ctx: gctx}
}

// Go schedules task, blocking while size tasks are already running.
func (p *errgroupPool) Go(task func(ctx context.Context)) {
	p.g.Go(func() error {
		task(p.ctx)
		return nil
	})
}

// Wait blocks until every scheduled task has returned.
func (p *errgroupPool) Wait() {
	_ = p.g.Wait()
}
