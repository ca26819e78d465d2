package live

import (
	"sync"

	"dispatch-board/models/departure"
)

// Mirror is a consumer-side cache of the departures collection with explicit
// loading/error state. Each delivery from the source replaces the cached data
// wholesale; the mirror never merges partial state. Swapping sources tears
// the previous subscription down exactly once, and after Close no delivery is
// applied.
type Mirror struct {
	mu    sync.Mutex
	unsub func()
	gen   int

	loading bool
	data    []departure.Departure
	err     error
	closed  bool
}

// NewMirror returns a mirror attached to src. A nil src leaves the mirror
// empty and not loading, the "no store available" state.
func NewMirror(src Source) *Mirror {
	m := &Mirror{}
	m.Reset(src)
	return m
}

// Reset detaches from the current source (if any) and attaches to src.
// Deliveries from the old subscription that race with the reset are dropped.
func (m *Mirror) Reset(src Source) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.unsub != nil {
		unsub := m.unsub
		m.unsub = nil
		defer unsub()
	}
	m.gen++
	gen := m.gen

	if src == nil {
		m.loading = false
		m.data = nil
		m.err = nil
		m.mu.Unlock()
		return
	}

	m.loading = true
	m.data = nil
	m.err = nil
	m.mu.Unlock()

	unsub := src.Subscribe(func(s Snapshot) {
		m.apply(gen, s)
	})

	m.mu.Lock()
	if m.closed || m.gen != gen {
		// Lost a race with Close or a newer Reset.
		m.mu.Unlock()
		unsub()
		return
	}
	m.unsub = unsub
	m.mu.Unlock()
}

func (m *Mirror) apply(gen int, s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.gen != gen {
		return // stale subscription
	}
	m.loading = false
	if s.Err != nil {
		m.data = nil
		m.err = s.Err
		return
	}
	m.data = s.Departures
	m.err = nil
}

// State returns the current tri-state view: loading, data, error.
func (m *Mirror) State() (data []departure.Departure, loading bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, m.loading, m.err
}

// Close releases the subscription. No delivery is applied afterwards.
func (m *Mirror) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	unsub := m.unsub
	m.unsub = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
