package hotseq

import "context"

// cell holds the latest distinct value of a single writer. version counts
// stored changes, so a reader can tell whether it has seen the current
// value without comparing.
type cell[T any] struct {
	m       *monitor
	eq      func(a, b T) bool
	value   T
	version uint64
	closed  bool
}

func newCell[T any](eq func(a, b T) bool) *cell[T] {
	return &cell[T]{m: newMonitor(), eq: eq}
}

// set stores v and wakes readers unless v equals the stored value.
func (c *cell[T]) set(v T) bool {
	c.m.lock()
	defer c.m.unlock()
	if c.version > 0 && c.eq(c.value, v) {
		return false
	}
	c.value = v
	c.version++
	c.m.signalLocked()
	return true
}

func (c *cell[T]) close() {
	c.m.lock()
	c.closed = true
	c.m.signalLocked()
	c.m.unlock()
}

// get returns the current value, its version and whether the cell is closed.
func (c *cell[T]) get() (T, uint64, bool) {
	c.m.lock()
	defer c.m.unlock()
	return c.value, c.version, c.closed
}

// read delivers the latest value to fn each time it changes. Changes made
// while fn is running are conflated into one delivery of the newest value,
// and a value equal to the previous delivery is never delivered twice in a
// row. The last stored value is delivered before read returns nil on a
// closed cell. It returns an ErrInterrupted error once ctx ends.
func (c *cell[T]) read(ctx context.Context, fn func(T)) error {
	var (
		seen      uint64
		last      T
		delivered bool
	)

	c.m.lock()
	for {
		if ctx.Err() != nil {
			c.m.unlock()
			return interrupted(ctx)
		}
		if c.version != seen {
			v := c.value
			seen = c.version
			if delivered && c.eq(last, v) {
				continue
			}
			last, delivered = v, true
			c.m.unlock()
			fn(v)
			c.m.lock()
			continue
		}

		if c.closed {
			c.m.unlock()
			return nil
		}
		if err := c.m.waitLocked(ctx); err != nil {
			c.m.unlock()
			return err
		}
	}
}
