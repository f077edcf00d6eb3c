package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events for the same path into one callback
// fired after the delay has passed without a new event.
type Debouncer struct {
	delay    time.Duration
	pending  map[string]*time.Timer
	callback func(path string)
	mutex    sync.Mutex
}

func NewDebouncer(delay time.Duration, callback func(path string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		pending:  make(map[string]*time.Timer),
		callback: callback,
	}
}

// Add schedules path, resetting the timer if it is already pending.
func (d *Debouncer) Add(path string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if timer, exists := d.pending[path]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mutex.Lock()
		// A newer Add replaced this timer
		if d.pending[path] != timer {
			d.mutex.Unlock()
			return
		}
		delete(d.pending, path)
		d.mutex.Unlock()

		d.callback(path)
	})
	d.pending[path] = timer
}

// CancelAll stops every pending callback.
func (d *Debouncer) CancelAll() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for path, timer := range d.pending {
		timer.Stop()
		delete(d.pending, path)
	}
}

func (d *Debouncer) PendingCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return len(d.pending)
}
