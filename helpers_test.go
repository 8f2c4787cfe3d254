package hotseq

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		require.Contains(t, fmt.Sprint(r), contains)
	}()
	fn()
}

// testCtx returns a context that fails the test instead of hanging forever.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// recorder collects values delivered from any goroutine.
type recorder[T any] struct {
	mu   sync.Mutex
	vals []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.vals...)
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vals)
}

func rangeInts(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// hotBackends lists every scheduler allowed to host live streams.
func hotBackends() map[string]func(t *testing.T) Scheduler {
	return map[string]func(t *testing.T) Scheduler{
		"thread": func(*testing.T) Scheduler { return NewThreadScheduler() },
		"future": func(t *testing.T) Scheduler { return newFuture(t) },
	}
}

// newFuture returns a FutureScheduler on its own pool, closed when t ends.
func newFuture(t *testing.T) *FutureScheduler {
	f := NewFutureScheduler(nil)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// allBackends adds the bounded pool to hotBackends.
func allBackends() map[string]func(t *testing.T) Scheduler {
	m := hotBackends()
	m["pool"] = func(t *testing.T) Scheduler {
		p := NewPoolScheduler(context.Background(), 4, WithQueueSize(64))
		t.Cleanup(func() { _ = p.Close() })
		return p
	}
	return m
}

// endless yields 0, 1, 2, ... until stop is closed.
func endless(stop <-chan struct{}) Source[int] {
	return func(yield func(int) Signal) {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if yield(i) == Stop {
				return
			}
		}
	}
}
