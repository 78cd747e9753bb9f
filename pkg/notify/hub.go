package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub is an in-memory [Notifier].
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan Event
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Publish delivers e to every subscriber without blocking. Refresh events
// are dropped for subscribers whose queue is full; end events always land.
func (h *Hub) Publish(ctx context.Context, e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	for _, ch := range h.subs {
		deliver(ch, e)
	}
	return nil
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, ErrClosed
	}

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() { h.remove(id) })
	}
	context.AfterFunc(ctx, cancel)
	return ch, cancel, nil
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs), nil
}

// Close closes every subscriber channel. Further publishes fail.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	return nil
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// Ensure Hub implements Notifier.
var _ Notifier = (*Hub)(nil)
