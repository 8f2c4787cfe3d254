package hotseq

import (
	"errors"
	"fmt"
)

// TaskInfo names a [Task]: the label it was submitted under and the id its
// scheduler assigned. Several tasks may share a name ("shared-reader"); the
// id tells them apart.
type TaskInfo struct {
	Name string
	ID   string
}

// TaskError is how a failed [Task] reports itself. Task.Wait, Scheduler.Join
// and every error combined by Scheduler.JoinAll carry one per failure, so a
// caller holding a *Task can find its own failure with [FindTaskError].
type TaskError struct {
	Task TaskInfo
	Err  error
}

func (e *TaskError) Error() string {
	if e.Task.ID == "" {
		return fmt.Sprintf("task %q failed: %v", e.Task.Name, e.Err)
	}
	return fmt.Sprintf("task %q (%s) failed: %v", e.Task.Name, e.Task.ID, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// IsTaskError reports whether a [*TaskError] appears anywhere in err's chain.
func IsTaskError(err error) bool {
	return firstTaskError(err) != nil
}

// TaskOf returns the TaskInfo of the first [*TaskError] in err's chain.
func TaskOf(err error) (TaskInfo, bool) {
	if te := firstTaskError(err); te != nil {
		return te.Task, true
	}
	return TaskInfo{}, false
}

// CauseOf strips the first [*TaskError] from err and returns what the work
// itself returned (or the *PanicError it raised). Errors that did not come
// from a task are returned unchanged.
func CauseOf(err error) error {
	if te := firstTaskError(err); te != nil {
		return te.Err
	}
	return err
}

// FindTaskError looks through err, including every branch of a combined
// error, for the failure of the task with the given id. Use it with
// [Task.Info] to pick one task's failure out of a JoinAll or [AllOf] result.
func FindTaskError(err error, id string) (*TaskError, bool) {
	var found *TaskError
	walkTaskErrors(err, func(te *TaskError) bool {
		if te.Task.ID == id {
			found = te
			return false
		}
		return true
	})
	return found, found != nil
}

// AllTaskErrors flattens err into the task failures it carries, in the order
// they were combined. It returns nil when there are none.
func AllTaskErrors(err error) []*TaskError {
	var out []*TaskError
	walkTaskErrors(err, func(te *TaskError) bool {
		out = append(out, te)
		return true
	})
	return out
}

func firstTaskError(err error) *TaskError {
	var te *TaskError
	if err != nil && errors.As(err, &te) {
		return te
	}
	return nil
}

// walkTaskErrors visits task failures depth first, without descending into
// a TaskError's own cause. It stops once visit returns false.
func walkTaskErrors(err error, visit func(*TaskError) bool) bool {
	switch e := err.(type) {
	case nil:
		return true
	case *TaskError:
		return visit(e)
	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			if !walkTaskErrors(sub, visit) {
				return false
			}
		}
		return true
	case interface{ Errors() []error }:
		for _, sub := range e.Errors() {
			if !walkTaskErrors(sub, visit) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		return walkTaskErrors(e.Unwrap(), visit)
	}
	return true
}
