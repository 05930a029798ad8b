// FILE: strategic-logger/internal/dispatch/broadcast.go
package dispatch

import (
	"sync"

	"github.com/Hypn-Tech/strategic-logger/core"
)

// Broadcaster fans dispatched entries out to passive observers (live
// consoles, debug taps). Publishing never blocks: a slow observer's
// buffer simply overflows and the entry is dropped for that observer.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]chan core.LogEntry
	nextID uint64
	closed bool
}

// NewBroadcaster creates a broadcaster with no observers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]chan core.LogEntry)}
}

// Subscribe registers an observer and returns its channel plus a cancel
// function. The cancel function is idempotent and closes the channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan core.LogEntry, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan core.LogEntry, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers an entry to every observer without blocking.
func (b *Broadcaster) Publish(entry core.LogEntry) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- entry:
		default:
			// Observer buffer full; the primary dispatch path never waits
		}
	}
}

// ObserverCount returns the number of active observers.
func (b *Broadcaster) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every observer channel. Later subscriptions receive an
// already-closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
