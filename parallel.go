package hotseq

import "context"

// ForEachParallel submits one task per value of p to s, each calling fn,
// and blocks until all of them complete. The combined error holds a
// [*TaskError] for every call that failed or panicked.
func ForEachParallel[T any](ctx context.Context, s Scheduler, p Producer[T], fn func(T) error) error {
	if fn == nil {
		panic("hotseq: ForEachParallel requires non-nil function")
	}
	return s.JoinAll(ctx, Transform(p.Source(), func(v T) Work {
		return func() error { return fn(v) }
	}))
}

// ForEachDetached submits one task per value of p to s without waiting for
// any of them, and returns their handles in submission order.
func ForEachDetached[T any](s Scheduler, p Producer[T], fn func(T) error) []*Task {
	if fn == nil {
		panic("hotseq: ForEachDetached requires non-nil function")
	}
	var tasks []*Task
	Drive(p, func(v T) {
		tasks = append(tasks, s.Submit("detached", func() error { return fn(v) }))
	})
	return tasks
}
