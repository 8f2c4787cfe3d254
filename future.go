package hotseq

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSchedulerClosed is reported by tasks submitted to a closed
// [FutureScheduler].
var ErrSchedulerClosed = errors.New("hotseq: scheduler is closed")

// Executor is a generic task queue. *pool.Pool from
// github.com/sourcegraph/conc satisfies it.
type Executor interface {
	Go(func())
}

// FutureScheduler is a [Scheduler] that hands work to an [Executor] and
// tracks each submission as a future.
type FutureScheduler struct {
	exec   Executor
	owned  *pool.Pool
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewFutureScheduler wraps exec. A nil exec means an unbounded conc pool
// owned by the scheduler, which is safe for long-lived producers and is
// released by [FutureScheduler.Close].
func NewFutureScheduler(exec Executor, opts ...SchedulerOption) *FutureScheduler {
	f := &FutureScheduler{exec: exec}
	if exec == nil {
		f.owned = pool.New()
		f.exec = f.owned
	}
	f.logger = buildSchedulerConfig(0, opts).logger
	return f
}

// Submit hands w to the executor and returns its future. After Close the
// returned Task has already failed with [ErrSchedulerClosed].
func (f *FutureScheduler) Submit(name string, w Work) *Task {
	if w == nil {
		panic("hotseq: Submit requires non-nil work")
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return failedTask(name, ErrSchedulerClosed)
	}
	t := newTask(name)
	f.exec.Go(func() {
		t.run(w)
		logFailure(f.logger, t)
	})
	return t
}

// Join blocks until t completes.
func (f *FutureScheduler) Join(ctx context.Context, t *Task) error {
	return t.Wait(ctx)
}

// JoinAll submits every work and waits for all of their futures. Each
// future is awaited in its own errgroup goroutine; when ctx ends the group
// is cancelled and JoinAll returns the interruption without waiting for
// the rest.
func (f *FutureScheduler) JoinAll(ctx context.Context, works Source[Work]) error {
	var tasks []*Task
	works(func(w Work) Signal {
		tasks = append(tasks, f.Submit("future-join-all", w))
		return Continue
	})

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			select {
			case <-t.done:
				return nil
			case <-gctx.Done():
				return interrupted(gctx)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	errs := make([]error, len(tasks))
	for i, t := range tasks {
		errs[i] = t.err
	}
	return multierr.Combine(errs...)
}

// Close stops accepting work and, if the scheduler created its own pool,
// waits for every submitted task and releases the pool's goroutines. A
// caller-supplied Executor is left to its owner. Safe to call more than
// once.
func (f *FutureScheduler) Close() error {
	f.mu.Lock()
	first := !f.closed
	f.closed = true
	f.mu.Unlock()

	if first && f.owned != nil {
		f.owned.Wait()
		f.logger.Debug("future scheduler closed")
	}
	return nil
}

// AllOf returns a Task that completes once every task in tasks has
// completed. Its error is the combination of the tasks' errors, not wrapped
// in another [*TaskError].
func AllOf(tasks ...*Task) *Task {
	all := newTask("all-of")
	go func() {
		errs := make([]error, len(tasks))
		for i, t := range tasks {
			<-t.done
			errs[i] = t.err
		}
		all.err = multierr.Combine(errs...)
		close(all.done)
	}()
	return all
}
