package hotseq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrPoolClosed is the cause of a [Task] submitted after [PoolScheduler.Close].
var ErrPoolClosed = errors.New("hotseq: pool is closed")

// PoolScheduler is a [Scheduler] backed by a fixed number of worker
// goroutines sharing one bounded queue.
//
// Because every worker is a scarce resource, a PoolScheduler is rejected by
// [ToShared] and [ToState] with [ErrHotOnPool].
type PoolScheduler struct {
	tasks  chan queuedTask
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	logger *zap.Logger

	errMu sync.Mutex
	errs  error

	// Observability counters.
	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	inFlight  atomic.Int64
	workers   int
}

type queuedTask struct {
	task *Task
	work Work
}

// PoolStats provides a point-in-time snapshot of pool activity.
type PoolStats struct {
	Submitted  int64 // total tasks submitted
	Completed  int64 // tasks finished (success + error)
	Errored    int64 // tasks that returned non-nil error or panicked
	InFlight   int64 // tasks currently executing
	QueueDepth int   // tasks waiting in the queue
	Workers    int   // worker count (fixed at creation)
}

// NewPoolScheduler creates a pool with n worker goroutines.
// Workers start immediately and process tasks until [PoolScheduler.Close]
// is called or ctx is done. Panics if n <= 0.
func NewPoolScheduler(
	ctx context.Context,
	n int,
	opts ...SchedulerOption,
) *PoolScheduler {
	if n <= 0 {
		panic("hotseq: NewPoolScheduler requires n > 0")
	}

	cfg := buildSchedulerConfig(n, opts)

	ctx, cancel := context.WithCancel(ctx)
	p := &PoolScheduler{
		tasks:   make(chan queuedTask, cfg.queueSize),
		ctx:     ctx,
		cancel:  cancel,
		logger:  cfg.logger,
		workers: n,
	}

	p.wg.Add(n)
	for range n {
		go p.worker()
	}

	if cfg.onMetrics != nil {
		go func() {
			ticker := time.NewTicker(cfg.metricsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if p.closed.Load() {
						return
					}
					cfg.onMetrics(p.Stats())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return p
}

func (p *PoolScheduler) worker() {
	defer p.wg.Done()
	for q := range p.tasks {
		p.runTask(q)
	}
}

func (p *PoolScheduler) runTask(q queuedTask) {
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}()

	q.task.run(q.work)
	if err := q.task.err; err != nil {
		p.errored.Add(1)
		p.errMu.Lock()
		p.errs = multierr.Append(p.errs, err)
		p.errMu.Unlock()
		logFailure(p.logger, q.task)
	}
}

// Stats returns a point-in-time snapshot of pool activity.
// Safe to call concurrently.
func (p *PoolScheduler) Stats() PoolStats {
	return PoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Errored:    p.errored.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: len(p.tasks),
		Workers:    p.workers,
	}
}

// Submit queues w for a worker. It blocks while the queue is full.
// If the pool is closed, or its context ends while waiting, the returned
// Task has already failed with [ErrPoolClosed] or the context error.
func (p *PoolScheduler) Submit(name string, w Work) (t *Task) {
	if w == nil {
		panic("hotseq: Submit requires non-nil work")
	}
	if p.closed.Load() {
		return failedTask(name, ErrPoolClosed)
	}

	// Close may close the queue between the check above and the send.
	defer func() {
		if r := recover(); r != nil {
			t = failedTask(name, ErrPoolClosed)
		}
	}()

	t = newTask(name)
	select {
	case p.tasks <- queuedTask{task: t, work: w}:
		p.submitted.Add(1)
		return t
	case <-p.ctx.Done():
		return failedTask(name, p.ctx.Err())
	}
}

// Join blocks until t completes.
func (p *PoolScheduler) Join(ctx context.Context, t *Task) error {
	return t.Wait(ctx)
}

// JoinAll submits every work, then joins them one by one in submission
// order rather than completion order.
func (p *PoolScheduler) JoinAll(ctx context.Context, works Source[Work]) error {
	var tasks []*Task
	works(func(w Work) Signal {
		tasks = append(tasks, p.Submit("pool-join-all", w))
		return Continue
	})
	return joinInOrder(ctx, tasks)
}

// Close stops accepting new tasks and waits for queued and in-flight tasks
// to finish. Returns the combined errors from all failed tasks.
// Safe to call multiple times; subsequent calls return the same result.
func (p *PoolScheduler) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
		p.logger.Debug("pool closing", zap.Int("workers", p.workers))
	}
	p.wg.Wait()
	p.cancel()

	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.errs
}
