package auth

import (
	"sync"

	"github.com/YnTheNerd/cleanspot/internal/events"
)

// Session tracks the current identity and pushes changes to observers.
// It is injected explicitly instead of living as a package singleton,
// so submission and stats logic stay testable without a live provider.
type Session struct {
	mu      sync.RWMutex
	current *Identity
	changes *events.Broadcaster[*Identity]
}

func NewSession() *Session {
	return &Session{
		changes: events.NewBroadcaster[*Identity](8),
	}
}

// Set replaces the current identity and notifies observers. Pass nil on
// sign-out.
func (s *Session) Set(id *Identity) {
	s.mu.Lock()
	s.current = id
	s.mu.Unlock()
	s.changes.Publish(id)
}

// Current returns the signed-in identity, or nil.
func (s *Session) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnAuthStateChange subscribes to identity changes: the new identity on
// sign-in, nil on sign-out. The returned function unsubscribes and
// closes the channel.
func (s *Session) OnAuthStateChange() (<-chan *Identity, func()) {
	return s.changes.Subscribe()
}

// Close shuts down all observers.
func (s *Session) Close() {
	s.changes.Close()
}
