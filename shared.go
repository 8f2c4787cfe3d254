package hotseq

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrInvalidCapacity is returned by [ToShared] for a non-positive capacity.
var ErrInvalidCapacity = errors.New("hotseq: capacity must be positive")

// Shared broadcasts one producer to any number of independent readers
// through a fixed-capacity ring. The producer never blocks: when the ring
// is full the oldest element is overwritten, and a reader that falls more
// than capacity elements behind skips forward, losing what was evicted.
// Each reader sees an ordered, possibly gapped, replay of production.
//
// A Shared has no cancellation of its own. The producer runs until its
// source is exhausted; readers run until they have drained a closed ring
// or their context ends.
type Shared[T any] struct {
	*hot
	ring *ring[T]
}

// SharedStats is a point-in-time snapshot of a [Shared] stream.
type SharedStats struct {
	Capacity int   // ring size
	Produced int64 // elements pushed so far (Dropped + Retained)
	Dropped  int64 // elements evicted before every reader saw them
	Retained int   // elements currently held
	Readers  int64 // reader tasks still running
	Closed   bool  // producer exhausted its source
}

// ToShared turns p into a hot stream replayed to subscribers through a ring
// of the given capacity.
//
// The producer is submitted to s immediately, or on the first
// [Shared.Subscribe] with [WithLazyStart]. A [*PoolScheduler] is rejected
// with [ErrHotOnPool] since the producer would hold a worker indefinitely.
func ToShared[T any](s Scheduler, capacity int, p Producer[T], opts ...Option) (*Shared[T], error) {
	if err := checkForHot(s); err != nil {
		return nil, err
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	src := p.Source()
	r := newRing[T](capacity)
	cfg := buildConfig("shared", opts)

	sh := &Shared[T]{ring: r}
	sh.hot = newHot(s, cfg, func() error {
		defer r.close()
		src(func(v T) Signal {
			r.push(v)
			return Continue
		})
		dropped, count, _ := r.snapshot()
		sh.log.Debug("producer finished",
			zap.Int64("produced", dropped+int64(count)),
			zap.Int64("dropped", dropped),
		)
		return nil
	})

	if !cfg.lazy {
		sh.start()
	}
	return sh, nil
}

// Start launches the producer if it has not been started yet and returns
// its task. It is safe to call concurrently; exactly one producer runs.
func (sh *Shared[T]) Start() *Task { return sh.start() }

// Wait blocks until the producer has been started and has exhausted its
// source, and returns the producer's error.
func (sh *Shared[T]) Wait(ctx context.Context) error { return sh.wait(ctx) }

// Subscribe attaches a reader and returns its task right away. The reader
// starts at the oldest element still in the ring and pushes every element
// to fn on its own task, in production order. The task completes once the
// producer is done and the reader has delivered every element still
// available to it, or with an [ErrInterrupted] error when ctx ends.
func (sh *Shared[T]) Subscribe(ctx context.Context, fn func(T)) *Task {
	if fn == nil {
		panic("hotseq: Subscribe requires non-nil callback")
	}
	cursor := sh.ring.cursor()
	return sh.subscribe(func(log *zap.Logger) error {
		return sh.ring.read(ctx, cursor, fn, func(skipped int64) {
			log.Debug("reader lagged behind eviction", zap.Int64("skipped", skipped))
		})
	})
}

// Stats returns a snapshot of the stream.
func (sh *Shared[T]) Stats() SharedStats {
	dropped, count, closed := sh.ring.snapshot()
	return SharedStats{
		Capacity: len(sh.ring.store),
		Produced: dropped + int64(count),
		Dropped:  dropped,
		Retained: count,
		Readers:  sh.readers.Load(),
		Closed:   closed,
	}
}
