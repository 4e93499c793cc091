package events

import (
	"sort"
	"sync"

	"tmi/internal/app/ports"
)

// Handler receives one emitted event.
type Handler func(e ports.Event)

// Bus routes semantic events to subscribers. "*" subscribes to everything.
// Emit runs handlers synchronously on the emitting goroutine, so dispatch
// order is delivery order.
type Bus struct {
	mu       sync.Mutex
	seq      int
	handlers map[string]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for an event type and returns its
// unsubscribe func.
func (b *Bus) Subscribe(eventType string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	id := b.seq
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[int]Handler)
	}
	b.handlers[eventType][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[eventType], id)
	}
}

// Once registers a handler that deregisters itself synchronously with its
// first invocation.
func (b *Bus) Once(eventType string, h Handler) (cancel func()) {
	var once sync.Once
	var unsub func()
	unsub = b.Subscribe(eventType, func(e ports.Event) {
		once.Do(func() {
			unsub()
			h(e)
		})
	})
	return func() { once.Do(unsub) }
}

// Emit delivers the event to its type's subscribers, then to wildcard
// subscribers.
func (b *Bus) Emit(e ports.Event) {
	for _, h := range b.snapshot(e.Type) {
		h(e)
	}
	for _, h := range b.snapshot("*") {
		h(e)
	}
}

// snapshot copies handlers in registration order so delivery is stable.
func (b *Bus) snapshot(eventType string) []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]int, 0, len(b.handlers[eventType]))
	for id := range b.handlers[eventType] {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	hs := make([]Handler, 0, len(ids))
	for _, id := range ids {
		hs = append(hs, b.handlers[eventType][id])
	}
	return hs
}
