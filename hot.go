package hotseq

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// hot owns the single producer task of a live stream. The producer is
// started by whoever wins the CAS on started; everyone else waits for the
// winner to publish the task.
type hot struct {
	sched   Scheduler
	cfg     config
	log     *zap.Logger
	emit    Work
	started atomic.Bool
	ready   chan struct{}
	task    *Task
	readers atomic.Int64
	nextID  atomic.Int64
}

func newHot(s Scheduler, cfg config, emit Work) *hot {
	return &hot{
		sched: s,
		cfg:   cfg,
		log:   cfg.logger.With(zap.String("stream", cfg.name)),
		emit:  emit,
		ready: make(chan struct{}),
	}
}

// start launches the producer exactly once and returns its task.
func (h *hot) start() *Task {
	if h.started.CompareAndSwap(false, true) {
		h.log.Debug("producer starting", zap.Bool("lazy", h.cfg.lazy))
		h.task = h.sched.Submit(h.cfg.name+"-producer", h.emit)
		close(h.ready)
		return h.task
	}
	<-h.ready
	return h.task
}

// wait blocks until the producer has been started and has finished.
func (h *hot) wait(ctx context.Context) error {
	select {
	case <-h.ready:
	case <-ctx.Done():
		return interrupted(ctx)
	}
	return h.sched.Join(ctx, h.task)
}

// subscribe starts the producer if it is lazy, then submits a reader task
// running read.
func (h *hot) subscribe(read func(log *zap.Logger) error) *Task {
	if h.cfg.lazy {
		h.start()
	}
	h.readers.Add(1)
	id := h.nextID.Add(1)
	return h.sched.Submit(h.cfg.name+"-reader", func() error {
		defer h.readers.Add(-1)
		log := h.log.With(zap.Int64("reader", id))
		err := read(log)
		log.Debug("reader finished", zap.Error(err))
		return err
	})
}
