package events

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names the kind of change carried by an Event
type Type string

const (
	TreeChanged      Type = "tree.changed"
	ScriptsChanged   Type = "scripts.changed"
	SelectionChanged Type = "selection.changed"
	EditorClose      Type = "editor.close"
	LibraryChanged   Type = "library.changed"
)

// Event is pushed to every subscriber of the hub
type Event struct {
	Type       Type      `json:"type"`
	Playground string    `json:"playground,omitempty"`
	SnapshotID string    `json:"snapshotId,omitempty"`
	Path       string    `json:"path,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher is the sending side of the hub
type Publisher interface {
	Publish(e Event)
}

// Hub fans events out to subscribers
type Hub struct {
	subscribers map[string]chan Event
	buffer      int
	mu          sync.RWMutex
}

// NewHub creates a hub whose subscribers each buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subscribers: make(map[string]chan Event),
		buffer:      buffer,
	}
}

// Subscribe registers a new subscriber
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish delivers e to every subscriber without blocking.
// A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- e:
		default:
			log.Printf("⚠️ Event buffer full for subscriber %s, dropping %s", id[:8], e.Type)
		}
	}
}

// Len returns the number of active subscribers
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
