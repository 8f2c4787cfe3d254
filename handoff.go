package hotseq

import "context"

// handoff is a single-slot queue guarded by a monitor. A single producer
// offers values and finally closes it; a single consumer drains it. The
// producer waits for the slot to be taken before it enqueues, so it never
// runs more than one value ahead of the consumer.
type handoff[T any] struct {
	m         *monitor
	queue     []T
	closed    bool
	abandoned bool
}

func newHandoff[T any]() *handoff[T] {
	return &handoff[T]{m: newMonitor()}
}

// offer waits for the slot to be free, then enqueues v and wakes the
// consumer. It reports false without enqueueing once the consumer has gone.
func (h *handoff[T]) offer(v T) bool {
	h.m.lock()
	defer h.m.unlock()
	for len(h.queue) > 0 && !h.abandoned {
		// The producer is only released by the consumer.
		_ = h.m.waitLocked(context.Background())
	}
	if h.abandoned {
		return false
	}
	h.queue = append(h.queue, v)
	h.m.signalLocked()
	return true
}

// close marks the end of production and wakes the consumer.
func (h *handoff[T]) close() {
	h.m.lock()
	h.closed = true
	h.m.signalLocked()
	h.m.unlock()
}

// pollLocked removes the oldest value and wakes a waiting producer. The
// caller holds the lock.
func (h *handoff[T]) pollLocked() (T, bool) {
	var zero T
	if len(h.queue) == 0 {
		return zero, false
	}
	v := h.queue[0]
	h.queue[0] = zero
	h.queue = h.queue[1:]
	if len(h.queue) == 0 {
		h.queue = nil
	}
	h.m.signalLocked()
	return v, true
}

// drain delivers queued values to fn in FIFO order until the handoff is
// closed and empty. Values are discarded once skip reports true. fn runs
// without the lock held.
//
// When ctx ends drain returns an [ErrInterrupted] error, even if values
// keep arriving, and abandons the handoff so the producer is not left
// waiting for a consumer that is gone.
func (h *handoff[T]) drain(ctx context.Context, fn func(T), skip func() bool) error {
	h.m.lock()
	for {
		if ctx.Err() != nil {
			h.abandonLocked()
			h.m.unlock()
			return interrupted(ctx)
		}
		if v, ok := h.pollLocked(); ok {
			h.m.unlock()
			if !skip() {
				fn(v)
			}
			h.m.lock()
			continue
		}
		if h.closed {
			h.m.unlock()
			return nil
		}
		if err := h.m.waitLocked(ctx); err != nil {
			h.abandonLocked()
			h.m.unlock()
			return err
		}
	}
}

func (h *handoff[T]) abandonLocked() {
	h.abandoned = true
	h.queue = nil
	h.m.signalLocked()
}
