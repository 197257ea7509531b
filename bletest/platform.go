// Package bletest provides an in-memory bluetooth.Platform for tests.
package bletest

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/emes30/bluetooth"
)

// Platform is a fake platform. Events injected while a scanner is started
// are delivered synchronously to the coordinator.
type Platform struct {
	mu       sync.Mutex
	adapters []bluetooth.Adapter
	current  *Scanner
	attempts int
	failures int
	failErr  error
	starts   int
	stops    int
	mode     bluetooth.ScanningMode
	adapter  bluetooth.Adapter

	// AdaptersErr is returned by Adapters.
	AdaptersErr error
	// StartErr is returned by the next scanner's Start.
	StartErr error
	// StopErr is returned by the scanner's Stop.
	StopErr error
	// StartBlock, if set, blocks Start until it's closed or the start context ends.
	StartBlock chan struct{}
}

// NewPlatform returns a platform with the given adapters, or a single LE
// adapter hci0 when none are given.
func NewPlatform(adapters ...bluetooth.Adapter) *Platform {
	if len(adapters) == 0 {
		adapters = []bluetooth.Adapter{{ID: "hci0", Address: "00:11:22:33:44:55", Name: "hci0", LE: true, Up: true}}
	}
	return &Platform{adapters: adapters}
}

// Adapters ...
func (p *Platform) Adapters() ([]bluetooth.Adapter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AdaptersErr != nil {
		return nil, p.AdaptersErr
	}
	return append([]bluetooth.Adapter(nil), p.adapters...), nil
}

// NewScanner ...
func (p *Platform) NewScanner(mode bluetooth.ScanningMode, a bluetooth.Adapter) (bluetooth.PlatformScanner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode, p.adapter = mode, a
	return &Scanner{p: p}, nil
}

// Inject delivers e to the running scanner's handler and reports whether
// a scanner was running.
func (p *Platform) Inject(e bluetooth.Event) bool {
	p.mu.Lock()
	s := p.current
	p.mu.Unlock()
	if s == nil {
		return false
	}
	return s.deliver(e)
}

// Running reports whether a scanner is started.
func (p *Platform) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Starts returns how many scanners were started.
func (p *Platform) Starts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.starts
}

// FailStarts makes the next n scanner starts fail with err. It's safe to
// call while scanners are starting.
func (p *Platform) FailStarts(n int, err error) {
	p.mu.Lock()
	p.failures, p.failErr = n, err
	p.mu.Unlock()
}

// StartAttempts returns how many scanner starts were tried, failed ones
// included.
func (p *Platform) StartAttempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Stops returns how many scanners were stopped.
func (p *Platform) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// LastScanner returns the mode and adapter of the last scanner created.
func (p *Platform) LastScanner() (bluetooth.ScanningMode, bluetooth.Adapter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode, p.adapter
}

// Scanner is the fake platform scanner.
type Scanner struct {
	p *Platform

	mu sync.Mutex
	h  bluetooth.EventHandler
}

// Start ...
func (s *Scanner) Start(ctx context.Context, h bluetooth.EventHandler) error {
	s.p.mu.Lock()
	block, err := s.p.StartBlock, s.p.StartErr
	s.p.attempts++
	if s.p.failures > 0 {
		s.p.failures--
		err = s.p.failErr
	}
	s.p.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.h = h
	s.mu.Unlock()

	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.current != nil {
		return errors.New("bletest: a scanner is already running")
	}
	s.p.current = s
	s.p.starts++
	return nil
}

// Stop ...
func (s *Scanner) Stop() error {
	s.mu.Lock()
	s.h = nil
	s.mu.Unlock()

	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.current == s {
		s.p.current = nil
	}
	s.p.stops++
	return s.p.StopErr
}

func (s *Scanner) deliver(e bluetooth.Event) bool {
	s.mu.Lock()
	h := s.h
	s.mu.Unlock()
	if h == nil {
		return false
	}
	h(e)
	return true
}
