package debounce

import (
	"sync"
	"time"
)

// afterFunc is swapped out in tests to control timer firing.
var afterFunc = time.AfterFunc

// Debouncer coalesces bursts of Trigger calls into one invocation of fn after
// the delay elapses without another trigger. Only the latest scheduled
// callback may fire; stale timers that already raced past Stop are ignored.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
	gen   uint64
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = afterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.gen == gen && d.timer != nil
		d.mu.Unlock()
		if current {
			d.fn()
		}
	})
}

// Ensure initializes *d when still nil and returns the stored debouncer, so
// callers can lazily share one instance.
func Ensure(d **Debouncer, delay time.Duration, fn func()) *Debouncer {
	if *d == nil {
		*d = New(delay, fn)
	}
	return *d
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
