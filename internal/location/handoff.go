package location

import (
	"sync"
	"sync/atomic"
	"time"
)

// HandoffParams travels from the creation screen to the full-screen map
// picker. Draft fields ride along as opaque pass-through state so the
// form survives the round trip.
type HandoffParams struct {
	Latitude        *float64
	Longitude       *float64
	FormDescription string
	FormImageRef    string
}

// HandoffReturn travels back from the map picker. NavigationTimestamp
// is mandatory: the consumer compares it to the last consumed token to
// reject stale reapplication of the same return value.
type HandoffReturn struct {
	SelectedLatitude    float64
	SelectedLongitude   float64
	FormDescription     string
	FormImageRef        string
	NavigationTimestamp int64
}

// TokenSource issues strictly increasing navigation timestamps, even
// when two handoffs happen within the same millisecond.
type TokenSource struct {
	last atomic.Int64
}

func (s *TokenSource) Next() int64 {
	for {
		now := time.Now().UnixMilli()
		last := s.last.Load()
		if now <= last {
			now = last + 1
		}
		if s.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// HandoffConsumer applies a map return at most once per token.
type HandoffConsumer struct {
	mu   sync.Mutex
	seen int64
}

// Consume reports whether ret carries a fresh token and records it.
// A replayed or missing token returns false: re-entering the screen
// without a new selection must not reapply form state.
func (c *HandoffConsumer) Consume(ret HandoffReturn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ret.NavigationTimestamp == 0 || ret.NavigationTimestamp <= c.seen {
		return false
	}
	c.seen = ret.NavigationTimestamp
	return true
}
