package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLock_SerializesSameKey(t *testing.T) {
	kl := newKeyedLock()
	var mu sync.Mutex
	var order []int
	var active, maxActive int
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kl.Lock("connector-1")
			defer kl.Unlock("connector-1")
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			order = append(order, i)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	assert.Len(t, order, 5)
	assert.Equal(t, 1, maxActive)
}

func TestKeyedLock_DifferentKeysDoNotBlock(t *testing.T) {
	kl := newKeyedLock()
	kl.Lock("a")
	defer kl.Unlock("a")

	done := make(chan struct{})
	go func() {
		kl.Lock("b")
		kl.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on key b blocked by unrelated lock on key a")
	}
}

func TestKeyedLock_UnlockUnknownKeyIsNoop(t *testing.T) {
	kl := newKeyedLock()
	assert.NotPanics(t, func() { kl.Unlock("never-locked") })
}
