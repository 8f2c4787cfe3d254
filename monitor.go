package hotseq

import (
	"context"
	"sync"
)

// monitor is a mutex paired with a broadcast channel. waitLocked captures
// the channel while the lock is held and the next signal closes it, so a
// waiter that checked state under the lock never misses the wakeup for a
// later mutation.
type monitor struct {
	mu     sync.Mutex
	notify chan struct{}
}

func newMonitor() *monitor {
	return &monitor{notify: make(chan struct{})}
}

func (m *monitor) lock()   { m.mu.Lock() }
func (m *monitor) unlock() { m.mu.Unlock() }

// signalLocked wakes every waiter. The caller holds the lock.
func (m *monitor) signalLocked() {
	close(m.notify)
	m.notify = make(chan struct{})
}

// signal wakes every waiter.
func (m *monitor) signal() {
	m.mu.Lock()
	m.signalLocked()
	m.mu.Unlock()
}

// waitLocked releases the lock, blocks until the next signal or until ctx
// is done, and reacquires the lock. The caller must re-check its condition
// after it returns.
func (m *monitor) waitLocked(ctx context.Context) error {
	ch := m.notify
	m.mu.Unlock()
	defer m.mu.Lock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return interrupted(ctx)
	}
}
