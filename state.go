package bluetooth

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
)

var logger = log.New("bluetooth")

// DefaultStartTimeout bounds how long a platform scanner may take to start.
const DefaultStartTimeout = 12 * time.Second

// State ...
type State string

// State ...
const (
	Stopped  State = "Stopped"
	Starting State = "Starting"
	Scanning State = "Scanning"
	Stopping State = "Stopping"
)

// lifecycleHooks are called with the lifecycle lock held.
type lifecycleHooks struct {
	// starting is called before the platform scanner is started.
	// reload is set when the start follows MarkReloading or a restart.
	starting func(reload bool)
	started  func()
	// stopped is called once the platform scanner is down. flush is set
	// for an explicit stop.
	stopped func(flush bool)
}

// lifecycle owns the platform scanner. The embedded mutex serializes
// start and stop; it is never held while advertisements are dispatched.
type lifecycle struct {
	sync.Mutex

	platform     Platform
	handler      EventHandler
	startTimeout time.Duration
	hooks        lifecycleHooks

	reloading atomic.Bool

	// wanted is set by a successful Start and cleared only by Stop. A
	// restart that fails leaves it set so the next restart tries again.
	wanted bool

	mu      sync.RWMutex // guards the fields below for readers outside transitions
	state   State
	scanner PlatformScanner
	mode    ScanningMode
	adapter Adapter
}

func newLifecycle(p Platform, h EventHandler, tmo time.Duration, hooks lifecycleHooks) *lifecycle {
	if tmo <= 0 {
		tmo = DefaultStartTimeout
	}
	return &lifecycle{
		platform:     p,
		handler:      h,
		startTimeout: tmo,
		hooks:        hooks,
		state:        Stopped,
	}
}

func (l *lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// accepting reports whether platform events should be ingested. Scanners
// may report advertisements before Start returns.
func (l *lifecycle) accepting() bool {
	s := l.State()
	return s == Starting || s == Scanning
}

func (l *lifecycle) Adapter() (Adapter, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.adapter, l.state == Scanning
}

func (l *lifecycle) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// MarkReloading makes the next start reset the registry.
func (l *lifecycle) MarkReloading() {
	l.reloading.Store(true)
}

// Start starts scanning on the adapter selected by adapterID.
func (l *lifecycle) Start(ctx context.Context, mode ScanningMode, adapterID string) error {
	l.Lock()
	defer l.Unlock()
	if err := l.start(ctx, mode, adapterID); err != nil {
		return err
	}
	l.wanted = true
	return nil
}

// Stop stops scanning. Stopping a stopped lifecycle is a no-op, unless a
// failed restart left it down, in which case pending waiters are still
// flushed.
func (l *lifecycle) Stop() error {
	l.Lock()
	defer l.Unlock()
	wanted := l.wanted
	l.wanted = false
	if l.State() == Stopped {
		if wanted && l.hooks.stopped != nil {
			l.hooks.stopped(true)
		}
		return nil
	}
	return l.stop(true)
}

// Restart stops and starts the scanner again with the last mode and
// adapter, as one transition. Waiters and registrations survive it. A
// scanner that is down because an earlier restart failed is started again;
// one stopped with Stop is left alone.
func (l *lifecycle) Restart(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()
	if !l.wanted {
		return nil
	}
	l.mu.RLock()
	mode, id := l.mode, l.adapter.ID
	l.mu.RUnlock()
	l.reloading.Store(true)
	if err := l.stop(false); err != nil {
		logger.Warn("restart: stop failed", "err", err)
	}
	return l.start(ctx, mode, id)
}

func (l *lifecycle) start(ctx context.Context, mode ScanningMode, adapterID string) (err error) {
	if s := l.State(); s != Stopped {
		return errors.Wrapf(ErrAlreadyRunning, "start: scanner is %s", strings.ToLower(string(s)))
	}
	switch mode {
	case "":
		mode = ScanActive
	case ScanActive:
	case ScanPassive:
		logger.Warn("passive scanning is not implemented, scanning actively")
	default:
		return errors.Wrapf(ErrInvalidConfig, "start: scanning mode %q", mode)
	}

	logger.Info(string(Starting) + " +")
	defer func() {
		logger.Info(string(Starting)+" -", "err", err)
	}()

	a, err := l.selectAdapter(adapterID)
	if err != nil {
		return err
	}
	sc, err := l.platform.NewScanner(mode, a)
	if err != nil {
		return errors.Wrapf(err, "start: create scanner on %s", a.ID)
	}

	if l.hooks.starting != nil {
		l.hooks.starting(l.reloading.Swap(false))
	}
	l.setState(Starting)
	if err := l.startScanner(ctx, sc); err != nil {
		l.setState(Stopped)
		return err
	}

	l.mu.Lock()
	l.state, l.scanner, l.mode, l.adapter = Scanning, sc, mode, a
	l.mu.Unlock()
	logger.Info("scanning", "adapter", a.ID, "address", a.Address, "mode", string(mode))
	if l.hooks.started != nil {
		l.hooks.started()
	}
	return nil
}

// startScanner bounds sc.Start by the start timeout, even for scanners
// that ignore their context.
func (l *lifecycle) startScanner(ctx context.Context, sc PlatformScanner) error {
	ctx, cancel := context.WithTimeout(ctx, l.startTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sc.Start(ctx, l.handler) }()
	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if errors.Cause(err) == context.DeadlineExceeded {
			return errors.Wrapf(ErrStartTimeout, "start: %v", err)
		}
		return errors.Wrap(err, "start: platform scanner")
	case <-ctx.Done():
		go func() {
			// Release whatever the scanner acquired once it gives up.
			if <-done == nil {
				sc.Stop()
			}
		}()
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Wrapf(ErrStartTimeout, "start: no response within %s", l.startTimeout)
		}
		return errors.Wrap(ctx.Err(), "start")
	}
}

func (l *lifecycle) selectAdapter(id string) (Adapter, error) {
	adapters, err := l.platform.Adapters()
	if err != nil {
		return Adapter{}, errors.Wrapf(ErrAdapterUnavailable, "enumerate adapters: %v", err)
	}
	if id == "" || isDefaultAdapter(id) {
		for _, a := range adapters {
			if a.LE {
				return a, nil
			}
		}
		return Adapter{}, errors.Wrap(ErrAdapterUnavailable, "no LE capable adapter")
	}
	for _, a := range adapters {
		if a.ID == id || strings.EqualFold(a.Address, id) {
			if !a.LE {
				return Adapter{}, errors.Wrapf(ErrAdapterUnavailable, "adapter %s does not support LE", id)
			}
			return a, nil
		}
	}
	return Adapter{}, errors.Wrapf(ErrAdapterUnavailable, "adapter %s not found", id)
}

func isDefaultAdapter(id string) bool {
	for _, d := range DefaultAdapters {
		if id == d {
			return true
		}
	}
	return false
}

func (l *lifecycle) stop(flush bool) error {
	if l.State() == Stopped {
		return nil
	}
	logger.Info(string(Stopping) + " +")
	defer logger.Info(string(Stopping) + " -")

	l.mu.Lock()
	sc := l.scanner
	l.state = Stopping
	l.mu.Unlock()

	var err error
	if sc != nil {
		if err = sc.Stop(); err != nil {
			logger.Warn("stop: platform scanner", "err", err)
		}
	}

	l.mu.Lock()
	l.state, l.scanner = Stopped, nil
	l.mu.Unlock()

	if l.hooks.stopped != nil {
		l.hooks.stopped(flush)
	}
	return errors.Wrap(err, "stop: platform scanner")
}
