package bluetooth

import (
	"sync"
	"sync/atomic"
)

// Dispatcher fans advertisements out to registered callbacks.
//
// Every registration owns an ordered mailbox drained by at most one
// goroutine, so a slow callback only delays its own deliveries and the
// advertisements of an address reach a callback in arrival order.
type Dispatcher struct {
	mu   sync.RWMutex
	regs []*registration // copy on write

	nextID uint64
	wg     sync.WaitGroup
	m      *metrics
}

type delivery struct {
	a      *Advertisement
	change ChangeKind
}

type registration struct {
	id      uint64
	matcher Matcher
	cb      Callback

	mu        sync.Mutex
	queue     []delivery
	running   bool
	cancelled bool
}

// NewDispatcher returns a dispatcher without registrations.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds a registration. The returned CancelFunc removes exactly
// this registration; deliveries queued for it are dropped.
func (d *Dispatcher) Register(m Matcher, cb Callback) CancelFunc {
	r := d.register(m, cb)
	return func() { d.cancel(r) }
}

func (d *Dispatcher) register(m Matcher, cb Callback) *registration {
	r := &registration{
		id:      atomic.AddUint64(&d.nextID, 1),
		matcher: m,
		cb:      cb,
	}
	d.mu.Lock()
	regs := make([]*registration, len(d.regs), len(d.regs)+1)
	copy(regs, d.regs)
	d.regs = append(regs, r)
	n := len(d.regs)
	d.mu.Unlock()
	d.m.setRegistrations(n)
	return r
}

func (d *Dispatcher) cancel(r *registration) {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	r.queue = nil
	r.mu.Unlock()

	d.mu.Lock()
	regs := make([]*registration, 0, len(d.regs))
	for _, o := range d.regs {
		if o != r {
			regs = append(regs, o)
		}
	}
	d.regs = regs
	n := len(d.regs)
	d.mu.Unlock()
	d.m.setRegistrations(n)
}

// Dispatch queues a for every registration whose matcher accepts it and
// returns the number of matching registrations. It never waits for a
// callback.
func (d *Dispatcher) Dispatch(a *Advertisement, change ChangeKind) int {
	d.mu.RLock()
	regs := d.regs
	d.mu.RUnlock()

	n := 0
	for _, r := range regs {
		if !r.matcher.Match(a) {
			continue
		}
		if d.enqueue(r, delivery{a: a, change: change}) {
			n++
		}
	}
	return n
}

func (d *Dispatcher) enqueue(r *registration, dl delivery) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return false
	}
	r.queue = append(r.queue, dl)
	if !r.running {
		r.running = true
		d.wg.Add(1)
		go d.drain(r)
	}
	return true
}

func (d *Dispatcher) drain(r *registration) {
	defer d.wg.Done()
	for {
		r.mu.Lock()
		if r.cancelled || len(r.queue) == 0 {
			r.running = false
			r.mu.Unlock()
			return
		}
		dl := r.queue[0]
		r.queue[0] = delivery{}
		r.queue = r.queue[1:]
		r.mu.Unlock()

		d.invoke(r, dl)
	}
}

func (d *Dispatcher) invoke(r *registration, dl delivery) {
	defer func() {
		if v := recover(); v != nil {
			err := &SubscriberError{ID: r.id, Value: v}
			logger.Error("callback failed", "err", err, "addr", dl.a.Address(), "matcher", r.matcher.String())
			d.m.subscriberError()
		}
	}()
	r.cb(dl.a, dl.change)
	d.m.delivered()
}

// Len returns the number of registrations.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.regs)
}

// Wait blocks until every queued delivery has been handed to its callback
// and the callback returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Clear cancels every registration.
func (d *Dispatcher) Clear() {
	d.mu.RLock()
	regs := d.regs
	d.mu.RUnlock()
	for _, r := range regs {
		d.cancel(r)
	}
}
