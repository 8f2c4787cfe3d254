package hotseq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrAlreadyConsumed is returned by a second call to [AsyncSeq.Consume].
var ErrAlreadyConsumed = errors.New("hotseq: async sequence can only be consumed once")

// asyncCore is the consumption state shared by an AsyncSeq and every
// sequence derived from it with OnStart, OnCompletion or Map.
type asyncCore struct {
	consumed  atomic.Bool
	cancelled atomic.Bool

	mu   sync.Mutex
	task *Task
}

func (c *asyncCore) setTask(t *Task) {
	c.mu.Lock()
	c.task = t
	c.mu.Unlock()
}

func (c *asyncCore) getTask() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task
}

// AsyncSeq runs a cold [Source] on a [Scheduler]. It can be consumed at
// most once and cancelled cooperatively.
//
// Create one with [ToAsync] or [ToChannel].
type AsyncSeq[T any] struct {
	sched  Scheduler
	source Source[T]
	core   *asyncCore
	cfg    config
	run    func(ctx context.Context, fn func(T)) error
}

// ToAsync wraps p so that [AsyncSeq.Consume] drives it on a task submitted
// to s and returns immediately. Every value is pushed to the consumer's
// callback on that task.
//
// If p is itself an AsyncSeq, its root source is used, so the result runs
// on s alone.
func ToAsync[T any](s Scheduler, p Producer[T], opts ...Option) *AsyncSeq[T] {
	if s == nil {
		panic("hotseq: ToAsync requires non-nil scheduler")
	}
	a := &AsyncSeq[T]{
		sched:  s,
		source: p.Source(),
		core:   &asyncCore{},
		cfg:    buildConfig("async", opts),
	}
	a.run = func(_ context.Context, fn func(T)) error {
		log := a.cfg.logger.With(zap.String("stream", a.cfg.name))
		t := a.sched.Submit(a.cfg.name, func() error {
			log.Debug("async producer started")
			a.source(func(v T) Signal {
				if a.core.cancelled.Load() {
					return Stop
				}
				fn(v)
				return Continue
			})
			log.Debug("async producer finished", zap.Bool("cancelled", a.core.cancelled.Load()))
			return nil
		})
		a.core.setTask(t)
		return nil
	}
	return a
}

// ToChannel wraps p so that [AsyncSeq.Consume] starts the producer on s and
// then drains a single-slot handoff on the calling goroutine until
// production ends. The producer waits for each value to be taken before it
// offers the next, and the callback is only ever invoked from the consuming
// goroutine.
func ToChannel[T any](s Scheduler, p Producer[T], opts ...Option) *AsyncSeq[T] {
	if s == nil {
		panic("hotseq: ToChannel requires non-nil scheduler")
	}
	a := &AsyncSeq[T]{
		sched:  s,
		source: p.Source(),
		core:   &asyncCore{},
		cfg:    buildConfig("channel", opts),
	}
	a.run = func(ctx context.Context, fn func(T)) error {
		ch := newHandoff[T]()
		t := a.sched.Submit(a.cfg.name, func() error {
			defer ch.close()
			a.source(func(v T) Signal {
				if a.core.cancelled.Load() || !ch.offer(v) {
					return Stop
				}
				return Continue
			})
			return nil
		})
		a.core.setTask(t)
		err := ch.drain(ctx, fn, a.core.cancelled.Load)
		if err != nil {
			// Nobody is left to drain the queue.
			a.core.cancelled.Store(true)
		}
		return err
	}
	return a
}

// Source returns the unwrapped root source.
func (a *AsyncSeq[T]) Source() Source[T] { return a.source }

// Scheduler returns the scheduler the sequence runs on.
func (a *AsyncSeq[T]) Scheduler() Scheduler { return a.sched }

// Consume starts the sequence, pushing values to fn. It returns
// [ErrAlreadyConsumed] if the sequence (or one derived from the same
// [ToAsync] call) was consumed before; the producer is never re-run.
//
// For [ToAsync] sequences Consume returns as soon as the producer task is
// submitted. For [ToChannel] sequences it returns once every value has been
// delivered, or with an [ErrInterrupted] error if ctx ends first.
func (a *AsyncSeq[T]) Consume(ctx context.Context, fn func(T)) error {
	if fn == nil {
		panic("hotseq: Consume requires non-nil callback")
	}
	if !a.core.consumed.CompareAndSwap(false, true) {
		return ErrAlreadyConsumed
	}
	return a.run(ctx, fn)
}

// Task returns the producer task, or nil before Consume.
func (a *AsyncSeq[T]) Task() *Task { return a.core.getTask() }

// Join blocks until the producer task completes. It returns nil if the
// sequence was never consumed.
func (a *AsyncSeq[T]) Join(ctx context.Context) error {
	t := a.core.getTask()
	if t == nil {
		return nil
	}
	return a.sched.Join(ctx, t)
}

// Cancel asks the producer to stop at the next value it observes, then
// waits for it like [AsyncSeq.Join]. The value being delivered when Cancel
// is called completes; none is delivered after Cancel returns.
func (a *AsyncSeq[T]) Cancel(ctx context.Context) error {
	a.core.cancelled.Store(true)
	return a.Join(ctx)
}

// Cancelled reports whether Cancel has been called.
func (a *AsyncSeq[T]) Cancelled() bool { return a.core.cancelled.Load() }

// derive returns a sequence sharing a's scheduler, source and state.
func (a *AsyncSeq[T]) derive(run func(ctx context.Context, fn func(T)) error) *AsyncSeq[T] {
	return &AsyncSeq[T]{
		sched:  a.sched,
		source: a.source,
		core:   a.core,
		cfg:    a.cfg,
		run:    run,
	}
}

// OnStart returns a sequence that calls hook right before consumption
// starts. No extra task is spawned.
func (a *AsyncSeq[T]) OnStart(hook func()) *AsyncSeq[T] {
	return a.derive(func(ctx context.Context, fn func(T)) error {
		hook()
		return a.run(ctx, fn)
	})
}

// OnCompletion returns a sequence that calls hook right after the wrapped
// Consume returns. For ToAsync sequences that is once the producer has been
// submitted, not once it has finished.
func (a *AsyncSeq[T]) OnCompletion(hook func()) *AsyncSeq[T] {
	return a.derive(func(ctx context.Context, fn func(T)) error {
		err := a.run(ctx, fn)
		hook()
		return err
	})
}

// Map returns a sequence delivering fn(v) for every value of a. It shares
// a's scheduler and consumption state; fn runs on the consuming side, not
// inside the root source.
func Map[T, R any](a *AsyncSeq[T], fn func(T) R) *AsyncSeq[R] {
	if fn == nil {
		panic("hotseq: Map requires non-nil function")
	}
	return &AsyncSeq[R]{
		sched:  a.sched,
		source: Transform(a.source, fn),
		core:   a.core,
		cfg:    a.cfg,
		run: func(ctx context.Context, c func(R)) error {
			return a.run(ctx, func(v T) { c(fn(v)) })
		},
	}
}
