package watch

import (
	"log/slog"
	"sync"
	"time"
)

// keyState is the per-key debounce state: the pending timer, if any, a
// count of fires still in flight, and a mutex serializing fires so two
// regenerations for the same key never overlap. The state stays in the
// map while any fire is in flight, so a key that is cancelled and
// re-armed keeps serializing behind the old fire.
type keyState struct {
	timer    *time.Timer
	inflight int
	runMu    sync.Mutex
}

// Debouncer coalesces rapid events per key into a single callback
// invocation. Each Notify re-arms the key's timer; the callback fires
// once the key has been quiet for the full interval. Keys debounce
// independently and may fire concurrently with each other.
type Debouncer struct {
	interval time.Duration
	fire     func(key string)

	mu      sync.Mutex
	keys    map[string]*keyState
	stopped bool
}

// NewDebouncer creates a debouncer that waits for interval of quiet
// per key before invoking fire with that key.
func NewDebouncer(interval time.Duration, fire func(key string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		fire:     fire,
		keys:     make(map[string]*keyState),
	}
}

// Notify records an event for key. A pending timer for the key is
// cancelled and re-armed from now. Notify returns immediately; the
// callback runs on the timer's goroutine.
func (d *Debouncer) Notify(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	ks, ok := d.keys[key]
	if !ok {
		ks = &keyState{}
		d.keys[key] = ks
	}

	if ks.timer != nil {
		ks.timer.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		// A Stop, Cancel, or re-arm that raced this expiry wins: only
		// the currently registered timer may fire.
		if d.stopped || ks.timer != t {
			d.mu.Unlock()
			return
		}

		ks.timer = nil
		ks.inflight++
		d.mu.Unlock()

		defer d.fireDone(key, ks)

		ks.runMu.Lock()
		defer ks.runMu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				slog.Error("debounce callback panicked",
					slog.String("key", key), slog.Any("error", r))
			}
		}()

		d.fire(key)
	})
	ks.timer = t
}

// fireDone prunes the key's state once its fire has finished, unless a
// timer was re-armed or another fire is still in flight.
func (d *Debouncer) fireDone(key string, ks *keyState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ks.inflight--

	if ks.inflight == 0 && ks.timer == nil && d.keys[key] == ks {
		delete(d.keys, key)
	}
}

// Cancel drops any pending timer for key without firing. A fire already
// in flight completes; a later Notify starts a fresh cycle that still
// serializes behind it.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ks, ok := d.keys[key]
	if !ok {
		return
	}

	if ks.timer != nil {
		ks.timer.Stop()
		ks.timer = nil
	}

	if ks.inflight == 0 {
		delete(d.keys, key)
	}
}

// Stop cancels all pending timers. No callback fires after Stop
// returns, even for timers whose interval had already elapsed.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true

	for _, ks := range d.keys {
		if ks.timer != nil {
			ks.timer.Stop()
			ks.timer = nil
		}
	}

	d.keys = make(map[string]*keyState)
}

// Pending reports whether a timer is currently armed for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	ks, ok := d.keys[key]

	return ok && ks.timer != nil
}
