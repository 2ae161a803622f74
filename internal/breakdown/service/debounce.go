package service

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is how long edits are coalesced before a commit.
const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer runs fn once the calls to Trigger have paused for window.
//
// A Trigger during the window restarts it, so only the last of a burst fires.
// Flush runs a pending call immediately on the caller's goroutine; Stop drops
// it.
//
// Example:
//
//	d := NewDebouncer(100*time.Millisecond, save)
//	d.Trigger()
//	d.Trigger() // save runs once, ~100ms after this call
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	pending bool
}

func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules fn, replacing any call still waiting.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = true

	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// fire ignores timers superseded by a later Trigger, Flush or Stop.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Flush runs a pending call now. It reports whether one was pending.
func (d *Debouncer) Flush() bool {
	if !d.cancel() {
		return false
	}
	d.fn()
	return true
}

// Stop drops a pending call without running it.
func (d *Debouncer) Stop() {
	d.cancel()
}

// Pending reports whether a call is waiting for its window to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	was := d.pending
	d.pending = false
	return was
}
