// Package events provides an in-process fan-out of values to
// subscribers. It backs the auth-state observable and the report
// status watcher.
package events

import (
	"sync"
	"sync/atomic"
)

// Broadcaster delivers published values to every subscriber. Slow
// subscribers are skipped rather than blocking the publisher.
type Broadcaster[T any] struct {
	subscribers map[uint64]chan T
	nextID      atomic.Uint64
	buffer      int
	mu          sync.RWMutex
}

func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subscribers: make(map[uint64]chan T),
		buffer:      buffer,
	}
}

// Subscribe registers a new subscriber and returns its channel together
// with an unsubscribe handle. Unsubscribing closes the channel.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	id := b.nextID.Add(1)
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			if c, ok := b.subscribers[id]; ok {
				close(c)
				delete(b.subscribers, id)
			}
			b.mu.Unlock()
		})
	}
	return ch, unsubscribe
}

func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- v:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, letting receivers exit gracefully.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
