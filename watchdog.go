package bluetooth

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sony/gobreaker/v2"
)

// Watchdog defaults. A scanner that reported nothing for the timeout is
// assumed stuck and restarted.
const (
	DefaultWatchdogInterval = 300 * time.Second
	DefaultWatchdogTimeout  = 300 * time.Second
)

type watchdog struct {
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration
	lastSeen func() time.Time
	restart  func(ctx context.Context) error
	breaker  *gobreaker.CircuitBreaker[struct{}]
	m        *metrics

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func newWatchdog(c clock.Clock, interval, timeout time.Duration, lastSeen func() time.Time, restart func(context.Context) error) *watchdog {
	w := &watchdog{
		clock:    c,
		interval: interval,
		timeout:  timeout,
		lastSeen: lastSeen,
		restart:  restart,
	}
	w.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "scanner-restart",
		Timeout: 10 * time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("watchdog breaker", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return w
}

func (w *watchdog) start() {
	if w.interval <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	w.stop, w.done = make(chan struct{}), make(chan struct{})
	go w.loop(w.clock.Ticker(w.interval), w.stop, w.done)
}

// halt stops the loop and waits for a running check to finish.
func (w *watchdog) halt() {
	w.mu.Lock()
	stop, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (w *watchdog) loop(t *clock.Ticker, stop, done chan struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			w.check(stop)
		}
	}
}

func (w *watchdog) check(stop chan struct{}) {
	idle := w.clock.Since(w.lastSeen())
	if idle < w.timeout {
		return
	}
	logger.Warn("scanner silent, restarting", "idle", idle.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	_, err := w.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, w.restart(ctx)
	})
	switch err {
	case nil:
		w.m.restarted("ok")
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		w.m.restarted("skipped")
		logger.Debug("watchdog: restart skipped", "err", err)
	default:
		w.m.restarted("failed")
		logger.Error("watchdog: restart failed", "err", err)
	}
}
