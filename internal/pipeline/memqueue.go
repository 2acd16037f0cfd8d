package pipeline

import (
	"context"
	"sync"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

// MemQueue is a FIFO bounded by total item byte size rather than item count,
// so a handful of large attachments and a flood of small records both
// respect the same memory budget. Each producer pushes domain.FinishedSentinel
// when it has no more items; Get reports drained once every registered
// producer's sentinel has been consumed (grounded on jira.py's MemQueue).
type MemQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items []any
	sizes []int
	bytes int
	maxBytes int

	producers     int
	doneProducers int
}

// NewMemQueue returns an empty queue bounded at maxBytes.
func NewMemQueue(maxBytes int) *MemQueue {
	q := &MemQueue{maxBytes: maxBytes}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// AddProducer registers one more producer that must call Done before the
// queue can report fully drained.
func (q *MemQueue) AddProducer() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.producers++
}

// Put blocks until there is byte budget for item, then enqueues it. Returns
// ctx.Err() if ctx is cancelled while waiting.
func (q *MemQueue) Put(ctx context.Context, item any, size int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.bytes+size > q.maxBytes && q.bytes > 0 {
		if err := q.waitCond(ctx, q.notFull); err != nil {
			return err
		}
	}
	q.items = append(q.items, item)
	q.sizes = append(q.sizes, size)
	q.bytes += size
	q.notEmpty.Signal()
	return nil
}

// Done records that one producer finished, pushing its FinishedSentinel.
func (q *MemQueue) Done(ctx context.Context) error {
	return q.Put(ctx, domain.FinishedSentinel, 0)
}

// Get blocks for the next item. ok is false once every producer's sentinel
// has been observed and the queue is empty: callers stop consuming.
func (q *MemQueue) Get(ctx context.Context) (item any, ok bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.doneProducers >= q.producers && q.producers > 0 && len(q.items) == 0 {
			return nil, false, nil
		}
		if len(q.items) == 0 {
			if err := q.waitCond(ctx, q.notEmpty); err != nil {
				return nil, false, err
			}
			continue
		}

		item = q.items[0]
		size := q.sizes[0]
		q.items = q.items[1:]
		q.sizes = q.sizes[1:]
		q.bytes -= size
		q.notFull.Signal()

		if s, isStr := item.(string); isStr && s == domain.FinishedSentinel {
			q.doneProducers++
			q.notEmpty.Signal()
			continue
		}
		return item, true, nil
	}
}

// waitCond waits on cond, waking early if ctx is cancelled. Callers must
// hold q.mu.
func (q *MemQueue) waitCond(ctx context.Context, cond *sync.Cond) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		cond.Broadcast()
		q.mu.Unlock()
		close(done)
	})
	defer stop()
	cond.Wait()
	select {
	case <-done:
		return ctx.Err()
	default:
		return nil
	}
}
