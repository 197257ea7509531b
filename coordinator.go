package bluetooth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Coordinator owns the platform scanner and shares its advertisements
// with every registered consumer.
type Coordinator struct {
	platform Platform

	clock               clock.Clock
	source              string
	adapterID           string
	mode                ScanningMode
	startTimeout        time.Duration
	unavailableInterval time.Duration
	watchdogInterval    time.Duration
	watchdogTimeout     time.Duration
	maxHistory          int
	specs               []IntegrationMatchSpec
	flows               FlowStarter
	registerer          prometheus.Registerer

	setupOnce sync.Once
	setupErr  error

	life         *lifecycle
	registry     *Registry
	dispatcher   *Dispatcher
	tracker      *UnavailableTracker
	integrations *IntegrationMatcher
	history      *discoveryHistory
	watchdog     *watchdog
	m            *metrics

	lastSeen int64 // unix nanoseconds, atomic

	waitersMu sync.Mutex
	waiters   map[uint64]chan error
	waiterID  uint64
}

// New returns a coordinator for the platform p.
func New(p Platform, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		platform:            p,
		clock:               clock.New(),
		source:              SourceLocal,
		mode:                ScanActive,
		startTimeout:        DefaultStartTimeout,
		unavailableInterval: DefaultUnavailableInterval,
		watchdogInterval:    DefaultWatchdogInterval,
		watchdogTimeout:     DefaultWatchdogTimeout,
		maxHistory:          DefaultMaxHistory,
		waiters:             make(map[uint64]chan error),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "nil platform")
	}

	c.m = newMetrics()
	c.registry = NewRegistry()
	c.dispatcher = NewDispatcher()
	c.dispatcher.m = c.m
	c.tracker = NewUnavailableTracker(c.clock, c.unavailableInterval)
	c.tracker.m = c.m
	c.tracker.OnExpire = c.evict
	c.life = newLifecycle(p, c.handleEvent, c.startTimeout, lifecycleHooks{
		starting: c.onStarting,
		started:  c.onStarted,
		stopped:  c.onStopped,
	})
	c.watchdog = newWatchdog(c.clock, c.watchdogInterval, c.watchdogTimeout, c.lastSeenTime, c.life.Restart)
	c.watchdog.m = c.m
	return c, nil
}

// Setup loads the integration specs and registers metrics. It's safe to
// call more than once; Start calls it too.
func (c *Coordinator) Setup() error {
	c.setupOnce.Do(func() {
		specs := c.specs
		if specs == nil {
			specs = DefaultIntegrationSpecs()
		}
		im, err := NewIntegrationMatcher(specs)
		if err != nil {
			c.setupErr = errors.Wrap(err, "setup")
			return
		}
		h, err := newDiscoveryHistory(c.maxHistory)
		if err != nil {
			c.setupErr = errors.Wrap(err, "setup")
			return
		}
		if c.registerer != nil {
			if err := c.m.register(c.registerer); err != nil {
				c.setupErr = errors.Wrap(err, "setup: register metrics")
				return
			}
		}
		c.integrations, c.history = im, h
		logger.Info("setup", "integrations", im.Len(), "max_history", c.maxHistory)
	})
	return c.setupErr
}

// Start starts scanning. An empty mode or adapterID selects the
// configured default. It fails with ErrAlreadyRunning when scanning was
// started already and with ErrAdapterUnavailable when no adapter fits.
func (c *Coordinator) Start(ctx context.Context, mode ScanningMode, adapterID string) error {
	if err := c.Setup(); err != nil {
		return err
	}
	if mode == "" {
		mode = c.mode
	}
	if adapterID == "" {
		adapterID = c.adapterID
	}
	if err := c.life.Start(ctx, mode, adapterID); err != nil {
		return err
	}
	c.watchdog.start()
	return nil
}

// Stop stops scanning and fails pending waiters with ErrStopped. Registered
// callbacks and unavailable watchers are kept for the next Start. Stopping
// twice is not an error.
func (c *Coordinator) Stop() error {
	c.watchdog.halt()
	return c.life.Stop()
}

// MarkReloading makes the next Start begin with an empty registry and
// discovery history.
func (c *Coordinator) MarkReloading() {
	c.life.MarkReloading()
}

// Running reports whether the platform scanner is up.
func (c *Coordinator) Running() bool {
	return c.life.State() == Scanning
}

// State ...
func (c *Coordinator) State() State {
	return c.life.State()
}

// Adapter returns the adapter being scanned on.
func (c *Coordinator) Adapter() (Adapter, bool) {
	return c.life.Adapter()
}

func (c *Coordinator) onStarting(reload bool) {
	if !reload {
		return
	}
	// Devices remembered before the reload may be out of range now.
	c.registry.Reset()
	c.history.reset()
	c.m.setDevices(0)
	logger.Info("reload: discovery history cleared")
}

func (c *Coordinator) onStarted() {
	c.markSeen(c.clock.Now())
	c.m.setScanning(true)
	c.tracker.Resume()
}

// onStopped keeps registrations and unavailable watchers; only Close drops
// them. Silence while stopped doesn't make devices unavailable.
func (c *Coordinator) onStopped(flush bool) {
	c.m.setScanning(false)
	c.tracker.Pause()
	if flush {
		c.flushWaiters(ErrStopped)
	}
}

func (c *Coordinator) markSeen(t time.Time) {
	atomic.StoreInt64(&c.lastSeen, t.UnixNano())
}

func (c *Coordinator) lastSeenTime() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.lastSeen))
}

// handleEvent ingests one platform event. Platforms call it serially.
func (c *Coordinator) handleEvent(e Event) {
	if !c.life.accepting() {
		return
	}
	if e.Time.IsZero() {
		e.Time = c.clock.Now()
	}
	a := NewAdvertisement(e, c.source)
	if a.addr == "" {
		return
	}
	c.markSeen(e.Time)
	c.m.advertisement()

	change, ok := c.registry.Upsert(a)
	if !ok {
		c.m.staleAdvertisement()
		return
	}
	if change == ChangeNew {
		c.m.setDevices(c.registry.Len())
		if logger.IsDebug() {
			logger.Debug("new device", "addr", a.addr, "name", a.name, "rssi", a.rssi)
		}
	}
	c.tracker.Touch(a.addr)
	c.dispatcher.Dispatch(a, change)
	c.discover(a)
}

// discover offers a to the integrations interested in it.
func (c *Coordinator) discover(a *Advertisement) {
	if c.flows == nil || !c.history.novel(a) {
		return
	}
	for _, domain := range c.integrations.Match(a) {
		c.startFlow(domain, a)
	}
}

func (c *Coordinator) startFlow(domain string, a *Advertisement) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("discovery flow failed", "domain", domain, "addr", a.addr, "err", r)
		}
	}()
	c.flows.StartFlow(domain, a)
	c.m.flowStarted(domain)
}

func (c *Coordinator) evict(addr string) {
	if c.registry.Forget(addr) {
		c.m.setDevices(c.registry.Len())
	}
}

// Discovered returns a snapshot of the latest advertisement of every device.
func (c *Coordinator) Discovered() []*Advertisement {
	return c.registry.List()
}

// LastAdvertisement returns the latest advertisement of addr.
func (c *Coordinator) LastAdvertisement(addr string) (*Advertisement, bool) {
	return c.registry.Get(addr)
}

// Device returns the platform handle of addr.
func (c *Coordinator) Device(addr string) (interface{}, bool) {
	a, ok := c.registry.Get(addr)
	if !ok {
		return nil, false
	}
	return a.Device(), true
}

// Present reports whether addr is in the registry.
func (c *Coordinator) Present(addr string) bool {
	return c.registry.Present(addr)
}

// RegisterCallback calls cb for every advertisement m accepts. An address
// matcher is immediately replayed the cached advertisement of its address.
// mode is reserved for passive scanning and currently ignored.
func (c *Coordinator) RegisterCallback(m Matcher, cb Callback, mode ScanningMode) CancelFunc {
	if mode == ScanPassive {
		logger.Debug("passive callback registered, scanning actively", "matcher", m.String())
	}
	r := c.dispatcher.register(m, cb)
	if addr, ok := m.Address(); ok {
		if a, ok := c.registry.Get(addr); ok {
			c.dispatcher.enqueue(r, delivery{a: a, change: ChangeUpdated})
		}
	}
	return func() { c.dispatcher.cancel(r) }
}

// Wait blocks until every delivery queued so far was handed to its
// callback and the callback returned.
func (c *Coordinator) Wait() {
	c.dispatcher.Wait()
}

// Registrations returns the number of registered callbacks.
func (c *Coordinator) Registrations() int {
	return c.dispatcher.Len()
}

// TrackUnavailable calls cb once addr has not advertised for the
// unavailable interval.
func (c *Coordinator) TrackUnavailable(addr string, cb UnavailableCallback) CancelFunc {
	return c.tracker.Watch(addr, cb)
}

// Rediscover forgets addr so its next advertisement is reported as new and
// offered to integrations again.
func (c *Coordinator) Rediscover(addr string) {
	addr = NormalizeAddress(addr)
	c.evict(addr)
	if c.history != nil {
		c.history.forget(addr)
	}
}

// ProcessAdvertisementsUntil waits for the first advertisement accepted by
// m for which pred returns true. It fails with ErrTimeout after timeout,
// with ErrStopped when scanning stops, or with the context's error. The
// temporary registration is removed on every path.
func (c *Coordinator) ProcessAdvertisementsUntil(ctx context.Context, m Matcher, pred func(*Advertisement) bool, timeout time.Duration) (*Advertisement, error) {
	if pred == nil {
		pred = func(*Advertisement) bool { return true }
	}
	stopped, release := c.addWaiter()
	defer release()

	found := make(chan *Advertisement, 1)
	cancel := c.RegisterCallback(m, func(a *Advertisement, _ ChangeKind) {
		if !pred(a) {
			return
		}
		select {
		case found <- a:
		default:
		}
	}, ScanActive)
	defer cancel()

	t := c.clock.Timer(timeout)
	defer t.Stop()

	select {
	case a := <-found:
		return a, nil
	case <-t.C:
		return nil, errors.Wrapf(ErrTimeout, "%s within %s", m.String(), timeout)
	case err := <-stopped:
		return nil, errors.Wrap(err, "process advertisements")
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "process advertisements")
	}
}

func (c *Coordinator) addWaiter() (<-chan error, func()) {
	ch := make(chan error, 1)
	c.waitersMu.Lock()
	c.waiterID++
	id := c.waiterID
	c.waiters[id] = ch
	c.waitersMu.Unlock()
	return ch, func() {
		c.waitersMu.Lock()
		delete(c.waiters, id)
		c.waitersMu.Unlock()
	}
}

func (c *Coordinator) flushWaiters(err error) {
	c.waitersMu.Lock()
	defer c.waitersMu.Unlock()
	for id, ch := range c.waiters {
		ch <- err
		delete(c.waiters, id)
	}
}

// Close stops scanning for good: registrations and watchers are dropped
// and queued deliveries are waited for.
func (c *Coordinator) Close() error {
	err := c.Stop()
	c.dispatcher.Clear()
	c.tracker.Stop()
	c.dispatcher.Wait()
	return err
}
