package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ConcurrentTasks bounds how many goroutines a stage may run at once and
// joins their errors, grounded on jira.py's ConcurrentTasks/asyncio.Semaphore
// pairing and on the github connector's attachment fan-out shape.
type ConcurrentTasks struct {
	group *errgroup.Group
	ctx   context.Context
}

// NewConcurrentTasks returns a task group capped at maxConcurrency
// goroutines in flight, bound to ctx.
func NewConcurrentTasks(ctx context.Context, maxConcurrency int) *ConcurrentTasks {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	return &ConcurrentTasks{group: g, ctx: gctx}
}

// Context returns the group's context, cancelled as soon as any task
// returns an error.
func (t *ConcurrentTasks) Context() context.Context { return t.ctx }

// Put schedules fn to run, blocking if the concurrency limit is already
// saturated.
func (t *ConcurrentTasks) Put(fn func(ctx context.Context) error) {
	t.group.Go(func() error { return fn(t.ctx) })
}

// Join waits for every scheduled task to finish and returns the first
// error, if any.
func (t *ConcurrentTasks) Join() error {
	return t.group.Wait()
}
