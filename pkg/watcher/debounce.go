package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration coalesces the burst of events an editor's atomic
// save produces (write temp, rename, chmod) into a single notification.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer delays a callback until events stop arriving for the configured
// duration. Each Trigger resets the timer; only the last callback runs.
type Debouncer struct {
	d     time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period. A
// non-positive duration selects DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{d: d}
}

// Duration returns the configured quiet period.
func (db *Debouncer) Duration() time.Duration {
	return db.d
}

// Trigger schedules fn to run after the quiet period, replacing any
// previously scheduled callback.
func (db *Debouncer) Trigger(fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.d, fn)
}

// Cancel drops any pending callback.
func (db *Debouncer) Cancel() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
