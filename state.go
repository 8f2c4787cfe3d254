package hotseq

import (
	"context"

	"go.uber.org/zap"
)

// State keeps the latest distinct value produced by a source and pushes it
// to subscribers. A subscriber slower than the producer skips intermediate
// values: it only ever sees the newest one, never the same value twice in a
// row, and always the final value before its task completes.
type State[T any] struct {
	*hot
	cell *cell[T]
}

// ToState turns p into a conflated hot stream using == to detect changes.
// The producer is started like the one of [ToShared], and a
// [*PoolScheduler] is rejected with [ErrHotOnPool].
func ToState[T comparable](s Scheduler, p Producer[T], opts ...Option) (*State[T], error) {
	return ToStateFunc(s, p, func(a, b T) bool { return a == b }, opts...)
}

// ToStateFunc is like [ToState] but detects changes with eq.
func ToStateFunc[T any](s Scheduler, p Producer[T], eq func(a, b T) bool, opts ...Option) (*State[T], error) {
	if err := checkForHot(s); err != nil {
		return nil, err
	}
	if eq == nil {
		panic("hotseq: ToStateFunc requires non-nil equality")
	}

	src := p.Source()
	c := newCell(eq)
	cfg := buildConfig("state", opts)

	st := &State[T]{cell: c}
	st.hot = newHot(s, cfg, func() error {
		defer c.close()
		var changes int
		src(func(v T) Signal {
			if c.set(v) {
				changes++
			}
			return Continue
		})
		st.log.Debug("producer finished", zap.Int("changes", changes))
		return nil
	})

	if !cfg.lazy {
		st.start()
	}
	return st, nil
}

// Start launches the producer if it has not been started yet and returns
// its task.
func (st *State[T]) Start() *Task { return st.start() }

// Wait blocks until the producer has been started and has finished.
func (st *State[T]) Wait(ctx context.Context) error { return st.wait(ctx) }

// Subscribe attaches a reader and returns its task right away. The reader
// delivers the current value, if any, then every later change it observes.
func (st *State[T]) Subscribe(ctx context.Context, fn func(T)) *Task {
	if fn == nil {
		panic("hotseq: Subscribe requires non-nil callback")
	}
	return st.subscribe(func(*zap.Logger) error {
		return st.cell.read(ctx, fn)
	})
}

// Value returns the latest value and whether one has been produced.
func (st *State[T]) Value() (T, bool) {
	v, version, _ := st.cell.get()
	return v, version > 0
}
