package bluetooth

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// An Option is a configuration function, which configures the coordinator.
type Option func(*Coordinator) error

// OptClock sets the clock used for timestamps, timers and the watchdog.
func OptClock(c clock.Clock) Option {
	return func(co *Coordinator) error {
		co.clock = c
		return nil
	}
}

// OptSource sets the source identifier stamped on advertisements.
func OptSource(s string) Option {
	return func(co *Coordinator) error {
		co.source = s
		return nil
	}
}

// OptAdapter sets the adapter used when Start is given none.
func OptAdapter(id string) Option {
	return func(co *Coordinator) error {
		co.adapterID = id
		return nil
	}
}

// OptScanningMode sets the mode used when Start is given none.
func OptScanningMode(m ScanningMode) Option {
	return func(co *Coordinator) error {
		if m != ScanActive && m != ScanPassive {
			return errors.Wrapf(ErrInvalidConfig, "scanning mode %q", m)
		}
		co.mode = m
		return nil
	}
}

// OptStartTimeout bounds platform scanner start up.
func OptStartTimeout(d time.Duration) Option {
	return func(co *Coordinator) error {
		if d <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "start timeout %s", d)
		}
		co.startTimeout = d
		return nil
	}
}

// OptUnavailableInterval sets how long a device may stay silent before it
// is reported unavailable.
func OptUnavailableInterval(d time.Duration) Option {
	return func(co *Coordinator) error {
		if d <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "unavailable interval %s", d)
		}
		co.unavailableInterval = d
		return nil
	}
}

// OptWatchdog sets how often the scanner is checked and how long it may
// stay silent before it is restarted. A zero interval disables the watchdog.
func OptWatchdog(interval, timeout time.Duration) Option {
	return func(co *Coordinator) error {
		if interval < 0 || (interval > 0 && timeout <= 0) {
			return errors.Wrapf(ErrInvalidConfig, "watchdog %s/%s", interval, timeout)
		}
		co.watchdogInterval, co.watchdogTimeout = interval, timeout
		return nil
	}
}

// OptIntegrations replaces the built in integration specs.
func OptIntegrations(specs []IntegrationMatchSpec) Option {
	return func(co *Coordinator) error {
		co.specs = specs
		return nil
	}
}

// OptFlowStarter sets the sink for discovery flows.
func OptFlowStarter(f FlowStarter) Option {
	return func(co *Coordinator) error {
		co.flows = f
		return nil
	}
}

// OptMaxHistory bounds the number of addresses remembered for discovery.
func OptMaxHistory(n int) Option {
	return func(co *Coordinator) error {
		if n <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "max history %d", n)
		}
		co.maxHistory = n
		return nil
	}
}

// OptRegisterer registers the coordinator's metrics on r.
func OptRegisterer(r prometheus.Registerer) Option {
	return func(co *Coordinator) error {
		co.registerer = r
		return nil
	}
}
