package player

import (
	"sync"

	"github.com/desertthunder/qbz/internal/shared"
)

// Handler receives every event published on the bus.
type Handler func(Event)

// Subscription represents one registered handler on a [Bus].
type Subscription struct {
	id  string
	bus *Bus
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Unsubscribe removes the handler from the bus. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id)
}

type busEntry struct {
	id      string
	handler Handler
}

// Bus is a synchronous event bus: Publish invokes every subscribed handler
// in subscription order on the calling goroutine. Safe for concurrent use.
type Bus struct {
	mu      sync.RWMutex
	entries []busEntry
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events and returns its Subscription.
func (b *Bus) Subscribe(handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := shared.GenerateID()
	b.entries = append(b.entries, busEntry{id: id, handler: handler})
	return &Subscription{id: id, bus: b}
}

// Publish delivers the event to every current subscriber in order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	entries := make([]busEntry, len(b.entries))
	copy(entries, b.entries)
	b.mu.RUnlock()

	for _, entry := range entries {
		entry.handler(event)
	}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.entries {
		if entry.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}
