package hotseq

import "context"

// ring is a fixed-capacity drop-oldest buffer with a single writer and any
// number of readers, each holding its own cursor.
//
// Cursors count elements in production order. Every element ever pushed is
// either evicted (cursor < dropped) or retained at
// store[(head + cursor - dropped) % len(store)].
type ring[T any] struct {
	m       *monitor
	store   []T
	head    int
	count   int
	dropped int64
	closed  bool
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{
		m:     newMonitor(),
		store: make([]T, capacity),
	}
}

// push appends v, overwriting the oldest element when full.
func (r *ring[T]) push(v T) {
	r.m.lock()
	n := len(r.store)
	if r.count < n {
		r.store[(r.head+r.count)%n] = v
		r.count++
	} else {
		r.store[r.head] = v
		r.head = (r.head + 1) % n
		r.dropped++
	}
	r.m.signalLocked()
	r.m.unlock()
}

// close marks the end of production. It is terminal.
func (r *ring[T]) close() {
	r.m.lock()
	r.closed = true
	r.m.signalLocked()
	r.m.unlock()
}

// cursor returns the position of the oldest retained element.
func (r *ring[T]) cursor() int64 {
	r.m.lock()
	defer r.m.unlock()
	return r.dropped
}

// snapshot returns (dropped, count, closed) under the lock.
func (r *ring[T]) snapshot() (int64, int, bool) {
	r.m.lock()
	defer r.m.unlock()
	return r.dropped, r.count, r.closed
}

// read delivers elements from cursor i onwards to fn in production order.
// When the reader has fallen behind eviction it jumps to the oldest
// retained element and reports the number skipped to onLag. It returns nil
// once the ring is closed and every retained element past the cursor has
// been delivered, or an ErrInterrupted error as soon as ctx ends, whether
// the reader is waiting or still has elements to deliver.
func (r *ring[T]) read(ctx context.Context, i int64, fn func(T), onLag func(skipped int64)) error {
	r.m.lock()
	for {
		if ctx.Err() != nil {
			r.m.unlock()
			return interrupted(ctx)
		}
		if i < r.dropped {
			skipped := r.dropped - i
			i = r.dropped
			if onLag != nil {
				r.m.unlock()
				onLag(skipped)
				r.m.lock()
			}
			continue
		}

		if i-r.dropped >= int64(r.count) {
			if r.closed {
				r.m.unlock()
				return nil
			}
			if err := r.m.waitLocked(ctx); err != nil {
				r.m.unlock()
				return err
			}
			continue
		}

		v := r.store[(r.head+int(i-r.dropped))%len(r.store)]
		i++
		r.m.unlock()
		fn(v)
		r.m.lock()
	}
}
