package bluetooth

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultUnavailableInterval is how long an address may stay silent before
// it is reported unavailable.
const DefaultUnavailableInterval = 300 * time.Second

// UnavailableTracker keeps one expiry timer per address and calls the
// watchers of an address once its timer elapses without a Touch.
type UnavailableTracker struct {
	clock    clock.Clock
	interval time.Duration

	// OnExpire, if set, is called after the watchers of an expired address.
	OnExpire func(addr string)

	mu      sync.Mutex
	entries map[string]*watchEntry
	nextID  uint64
	paused  bool
	m       *metrics
}

type watchEntry struct {
	timer    *clock.Timer
	gen      uint64
	deadline time.Time
	watchers map[uint64]UnavailableCallback
}

// NewUnavailableTracker returns a tracker using c for its timers.
func NewUnavailableTracker(c clock.Clock, interval time.Duration) *UnavailableTracker {
	if c == nil {
		c = clock.New()
	}
	if interval <= 0 {
		interval = DefaultUnavailableInterval
	}
	return &UnavailableTracker{
		clock:    c,
		interval: interval,
		entries:  make(map[string]*watchEntry),
	}
}

// Interval ...
func (t *UnavailableTracker) Interval() time.Duration { return t.interval }

// Touch records that addr was just seen and pushes its deadline to
// now + interval, replacing any pending timer.
func (t *UnavailableTracker) Touch(addr string) {
	addr = NormalizeAddress(addr)
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[addr]
	if !ok {
		e = &watchEntry{watchers: make(map[uint64]UnavailableCallback)}
		t.entries[addr] = e
	}
	t.schedule(addr, e)
}

// schedule must be called with t.mu held. A paused tracker records the
// deadline but arms no timer.
func (t *UnavailableTracker) schedule(addr string, e *watchEntry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	gen := e.gen
	e.deadline = t.clock.Now().Add(t.interval)
	if t.paused {
		return
	}
	e.timer = t.clock.AfterFunc(t.interval, func() { t.expire(addr, gen) })
}

// Watch registers cb to be called when addr becomes unavailable. An
// address not tracked yet starts being tracked from now.
func (t *UnavailableTracker) Watch(addr string, cb UnavailableCallback) CancelFunc {
	addr = NormalizeAddress(addr)
	t.mu.Lock()
	e, ok := t.entries[addr]
	if !ok {
		e = &watchEntry{watchers: make(map[uint64]UnavailableCallback)}
		t.entries[addr] = e
		t.schedule(addr, e)
	}
	t.nextID++
	id := t.nextID
	e.watchers[id] = cb
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			if cur, ok := t.entries[addr]; ok && cur == e {
				delete(e.watchers, id)
			}
			t.mu.Unlock()
		})
	}
}

// Tracked reports whether addr has a pending expiry.
func (t *UnavailableTracker) Tracked(addr string) bool {
	_, ok := t.Deadline(addr)
	return ok
}

// Deadline returns the time addr expires at.
func (t *UnavailableTracker) Deadline(addr string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[NormalizeAddress(addr)]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Len returns the number of tracked addresses.
func (t *UnavailableTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Pause cancels every timer. Tracked addresses and their watchers are
// kept; nothing expires until Resume.
func (t *UnavailableTracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = true
	for _, e := range t.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.gen++
	}
}

// Resume restarts the timer of every tracked address from now.
func (t *UnavailableTracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.paused = false
	for addr, e := range t.entries {
		t.schedule(addr, e)
	}
}

// Stop cancels every timer and drops all watchers.
func (t *UnavailableTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	t.entries = make(map[string]*watchEntry)
}

func (t *UnavailableTracker) expire(addr string, gen uint64) {
	t.mu.Lock()
	e, ok := t.entries[addr]
	if !ok || e.gen != gen {
		// Touched or stopped after the timer fired.
		t.mu.Unlock()
		return
	}
	delete(t.entries, addr)
	cbs := make([]UnavailableCallback, 0, len(e.watchers))
	for _, cb := range e.watchers {
		cbs = append(cbs, cb)
	}
	t.mu.Unlock()

	logger.Debug("device unavailable", "addr", addr, "watchers", len(cbs))
	t.m.unavailable()
	for _, cb := range cbs {
		t.call(addr, cb)
	}
	if t.OnExpire != nil {
		t.OnExpire(addr)
	}
}

func (t *UnavailableTracker) call(addr string, cb UnavailableCallback) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unavailable callback panicked", "addr", addr, "err", r)
		}
	}()
	cb(addr)
}
