package geocode

import (
	"sync"
	"time"
)

// Debouncer collapses a burst of keystrokes into a single search fired
// a fixed delay after the last one. The state is an explicit object
// rather than a closure over UI lifecycle hooks, so teardown is a plain
// Cancel call. A superseded trigger never executes: staleness is
// checked against a generation counter, not arrival order.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the debounce delay, replacing any
// previously scheduled call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stale := gen != d.gen
		d.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

// Cancel drops any pending call. Safe to call at teardown even when
// nothing is scheduled.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++ // invalidates a fire that already left the timer
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
