package ws

import (
	"sync"

	"github.com/cwrk-planet/chatroom/internal/domain"
)

type Conn interface {
	// Send queues ev for delivery without blocking.
	Send(ev Event) bool
	Close() error
	Viewer() string
}

// Hub fans ledger events out to connected viewers. Each viewer only receives
// events for messages it is allowed to see.
type Hub struct {
	broadcast string

	mu    sync.RWMutex
	conns map[Conn]struct{}
}

func NewHub(broadcast string) *Hub {
	if broadcast == "" {
		broadcast = domain.DefaultBroadcastTarget
	}
	return &Hub{broadcast: broadcast, conns: make(map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Publish implements domain.EventPublisher.
func (h *Hub) Publish(ev domain.LedgerEvent) {
	out := toEvent(ev)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		if !ev.Message.VisibleTo(c.Viewer(), h.broadcast) {
			continue
		}
		_ = c.Send(out) // best-effort
	}
}

// Close drops every connection. Hijacked connections are not closed by
// http.Server.Shutdown, so the owner calls this on teardown.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[Conn]struct{})
	h.mu.Unlock()

	for c := range conns {
		_ = c.Close()
	}
}
