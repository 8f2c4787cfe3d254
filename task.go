package hotseq

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInterrupted is returned when a blocking wait is abandoned because the
// caller's context is done. The context's cause is wrapped alongside it.
var ErrInterrupted = errors.New("hotseq: wait interrupted")

// Work is a unit of work submitted to a [Scheduler].
type Work func() error

// Task is the handle of a submitted [Work]. It is created by the scheduler
// backend that accepted the work and completes exactly once.
type Task struct {
	info TaskInfo
	done chan struct{}
	err  error
}

func newTask(name string) *Task {
	return &Task{
		info: TaskInfo{Name: name, ID: uuid.NewString()},
		done: make(chan struct{}),
	}
}

// failedTask returns a Task that is already complete with err.
func failedTask(name string, err error) *Task {
	t := newTask(name)
	t.err = &TaskError{Task: t.info, Err: err}
	close(t.done)
	return t
}

// run executes w on the calling goroutine and completes t. A panic in w is
// recorded as a *PanicError.
func (t *Task) run(w Work) {
	if err := capture(w); err != nil {
		t.err = &TaskError{Task: t.info, Err: err}
	}
	close(t.done)
}

// Info returns the task's name and id.
func (t *Task) Info() TaskInfo { return t.info }

// Done returns a channel that is closed when the task completes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task's error. It is nil while the task is running.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task completes and returns its error, wrapped in a
// [*TaskError]. If ctx is done first, Wait returns an error wrapping
// [ErrInterrupted]; the task keeps running.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	default:
	}

	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return interrupted(ctx)
	}
}

func interrupted(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
}
