package puppet

import (
	"sync"

	"github.com/normanking/cortexpuppet/internal/retarget"
)

// Mailbox holds at most one undelivered frame. A newer frame replaces an
// older one that no pass has taken yet.
type Mailbox struct {
	mu      sync.Mutex
	frame   *retarget.Frame
	notify  chan struct{}
	dropped uint64
}

func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Put stores f and reports whether an undelivered frame was dropped.
func (m *Mailbox) Put(f *retarget.Frame) bool {
	m.mu.Lock()
	dropped := m.frame != nil
	if dropped {
		m.dropped++
	}
	m.frame = f
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return dropped
}

// Take removes and returns the pending frame.
func (m *Mailbox) Take() (*retarget.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.frame
	m.frame = nil
	return f, f != nil
}

// Ready is signalled after Put. A signal may be stale; Take decides.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.notify
}

func (m *Mailbox) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
