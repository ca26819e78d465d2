package live

import (
	"sync"
	"time"

	"dispatch-board/logger"
	"dispatch-board/models/departure"
)

// Snapshot is one complete delivery of the departures collection. Either
// Departures or Err is set, never both. Every delivery replaces the previous
// one entirely; subscribers must not merge.
type Snapshot struct {
	Departures []departure.Departure `json:"departures"`
	Err        error                 `json:"-"`
}

// Notice is a user-facing notification event pushed alongside snapshots.
type Notice struct {
	Kind    string    `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notice kinds.
const (
	NoticeCreated       = "created"
	NoticeUpdated       = "updated"
	NoticeDeleted       = "deleted"
	NoticeImported      = "imported"
	NoticeCleared       = "cleared"
	NoticeStatusChanged = "status_changed"
	NoticeDeparted      = "departed"
)

// Source is anything a Mirror can subscribe to for snapshots.
type Source interface {
	Subscribe(fn func(Snapshot)) (unsubscribe func())
}

// Loader produces the current full collection, ordered for display.
type Loader func() ([]departure.Departure, error)

// Hub keeps the latest full snapshot of the departures collection and fans
// deliveries out to subscribers. Writers call Refresh after every mutation;
// under write bursts intermediate states may be skipped, subscribers only
// ever see monotonically fresher snapshots.
//
// Callbacks run while the hub lock is held, so they must be quick and must
// not call back into the hub. The websocket handler hands snapshots to a
// buffered channel and the mirror just swaps a field, which is exactly the
// discipline this buys strict delivery ordering with.
type Hub struct {
	mu sync.Mutex

	load    Loader
	current Snapshot
	loaded  bool

	nextID     int
	snapSubs   map[int]func(Snapshot)
	noticeSubs map[int]func(Notice)
}

func NewHub(load Loader) *Hub {
	return &Hub{
		load:       load,
		snapSubs:   make(map[int]func(Snapshot)),
		noticeSubs: make(map[int]func(Notice)),
	}
}

// Subscribe registers a snapshot listener. The current snapshot is delivered
// immediately (loading it first if no snapshot exists yet); afterwards the
// listener receives every published snapshot until unsubscribed. The returned
// closure is idempotent.
func (h *Hub) Subscribe(fn func(Snapshot)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.loaded {
		h.current = h.loadOnce()
		h.loaded = true
	}
	id := h.nextID
	h.nextID++
	h.snapSubs[id] = fn

	fn(h.current)

	return func() {
		h.mu.Lock()
		delete(h.snapSubs, id)
		h.mu.Unlock()
	}
}

// SubscribeNotices registers a notification listener.
func (h *Hub) SubscribeNotices(fn func(Notice)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.noticeSubs[id] = fn

	return func() {
		h.mu.Lock()
		delete(h.noticeSubs, id)
		h.mu.Unlock()
	}
}

// Refresh reloads the collection and publishes the result to every snapshot
// subscriber. A load failure is published as an error snapshot; subscribers
// keep rendering their previous data until a later Refresh succeeds.
func (h *Hub) Refresh() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = h.loadOnce()
	h.loaded = true
	for _, fn := range h.snapSubs {
		fn(h.current)
	}
}

// Announce publishes a notice to all notice subscribers.
func (h *Hub) Announce(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, fn := range h.noticeSubs {
		fn(n)
	}
}

func (h *Hub) loadOnce() Snapshot {
	rows, err := h.load()
	if err != nil {
		logger.Error("Failed to load departures snapshot", err)
		return Snapshot{Err: err}
	}
	return Snapshot{Departures: rows}
}
