package hotseq

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ThreadScheduler is a [Scheduler] that starts a dedicated goroutine for
// every submission. It never queues, so it is the natural host for
// long-lived live-stream producers.
type ThreadScheduler struct {
	logger *zap.Logger
}

// NewThreadScheduler returns a goroutine-per-task scheduler.
func NewThreadScheduler(opts ...SchedulerOption) *ThreadScheduler {
	cfg := buildSchedulerConfig(0, opts)
	return &ThreadScheduler{logger: cfg.logger}
}

// Submit starts w on a new goroutine.
func (s *ThreadScheduler) Submit(name string, w Work) *Task {
	if w == nil {
		panic("hotseq: Submit requires non-nil work")
	}
	t := newTask(name)
	go func() {
		t.run(w)
		logFailure(s.logger, t)
	}()
	return t
}

// Join blocks until t completes.
func (s *ThreadScheduler) Join(ctx context.Context, t *Task) error {
	return t.Wait(ctx)
}

// JoinAll starts one goroutine per work and waits on a latch sized to the
// batch.
func (s *ThreadScheduler) JoinAll(ctx context.Context, works Source[Work]) error {
	latch := pool.New().WithErrors()
	works(func(w Work) Signal {
		t := newTask("thread-join-all")
		latch.Go(func() error {
			t.run(w)
			logFailure(s.logger, t)
			return t.err
		})
		return Continue
	})

	done := make(chan error, 1)
	go func() { done <- latch.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return interrupted(ctx)
	}
}
