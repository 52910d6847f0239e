package service

import (
	"sync"
	"time"
)

// Debouncer coalesces repeated triggers per key within a fixed window.
// Scheduling a new function for a key cancels any still-pending one, so at
// most the last scheduled function per key runs per window.
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]*time.Timer

	// onCancel is invoked when a pending trigger is replaced. Metrics hook.
	onCancel func()
}

// NewDebouncer creates a debouncer with the given coalescing window.
func NewDebouncer(window time.Duration, onCancel func()) *Debouncer {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &Debouncer{
		window:   window,
		pending:  make(map[string]*time.Timer),
		onCancel: onCancel,
	}
}

// Schedule queues fn to run after the window elapses, replacing any
// pending fn for the same key (last-write-wins).
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.pending[key]; ok {
		if timer.Stop() && d.onCancel != nil {
			d.onCancel()
		}
	}
	d.pending[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops any pending trigger for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.pending[key]; ok {
		timer.Stop()
		delete(d.pending, key)
	}
}

// Stop cancels every pending trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}
