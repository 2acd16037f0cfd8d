package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentTasks_BoundsInFlightGoroutines(t *testing.T) {
	tasks := NewConcurrentTasks(context.Background(), 2)
	var inFlight, maxSeen int32

	for i := 0; i < 10; i++ {
		tasks.Put(func(ctx context.Context) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				cur := atomic.LoadInt32(&maxSeen)
				if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		})
	}

	require.NoError(t, tasks.Join())
	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
}

func TestConcurrentTasks_JoinReturnsFirstError(t *testing.T) {
	tasks := NewConcurrentTasks(context.Background(), 4)
	boom := errors.New("boom")

	tasks.Put(func(ctx context.Context) error { return boom })
	tasks.Put(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := tasks.Join()
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentTasks_ContextCancelledOnError(t *testing.T) {
	tasks := NewConcurrentTasks(context.Background(), 1)
	boom := errors.New("boom")

	tasks.Put(func(ctx context.Context) error { return boom })
	_ = tasks.Join()

	assert.Error(t, tasks.Context().Err())
}
