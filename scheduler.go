package hotseq

import (
	"context"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrHotOnPool is returned when a [*PoolScheduler] is used for a live stream.
// Shared and state producers hold a worker for as long as their source runs,
// which starves a bounded pool.
var ErrHotOnPool = errors.New("hotseq: bounded pool scheduler cannot run live streams")

// Scheduler runs units of work in the background.
//
// Three backends are provided: [PoolScheduler] (a bounded worker pool),
// [FutureScheduler] (futures over a generic [Executor]) and
// [ThreadScheduler] (one goroutine per submission).
type Scheduler interface {
	// Submit starts w in the background and returns its handle.
	Submit(name string, w Work) *Task

	// Join blocks until t completes and returns its error.
	Join(ctx context.Context, t *Task) error

	// JoinAll submits every work pushed by works, then blocks until all of
	// them complete. The failures are combined; completion order is not
	// preserved.
	JoinAll(ctx context.Context, works Source[Work]) error
}

// checkForHot rejects schedulers that must not host a long-lived producer.
func checkForHot(s Scheduler) error {
	if s == nil {
		panic("hotseq: nil scheduler")
	}
	if _, ok := s.(*PoolScheduler); ok {
		return ErrHotOnPool
	}
	return nil
}

// joinInOrder waits for tasks one by one in submission order and combines
// their errors. It stops at the first interrupted wait.
func joinInOrder(ctx context.Context, tasks []*Task) error {
	var errs error
	for _, t := range tasks {
		err := t.Wait(ctx)
		if errors.Is(err, ErrInterrupted) {
			return err
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

// logFailure reports a failed task at warn level.
func logFailure(l *zap.Logger, t *Task) {
	err := t.Err()
	if err == nil {
		return
	}
	l.Warn("task failed",
		zap.String("task", t.info.Name),
		zap.String("id", t.info.ID),
		zap.Error(CauseOf(err)),
	)
}
