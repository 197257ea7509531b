package replay

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/emes30/bluetooth"
)

// Platform plays a Session to the coordinator in real time.
type Platform struct {
	session *Session
	clock   clock.Clock
}

// NewPlatform returns a platform playing s. A nil clock uses the wall clock.
func NewPlatform(s *Session, c clock.Clock) *Platform {
	if c == nil {
		c = clock.New()
	}
	return &Platform{session: s, clock: c}
}

// Adapters returns the single LE adapter the session was recorded on.
func (p *Platform) Adapters() ([]bluetooth.Adapter, error) {
	a := p.session.Adapter
	return []bluetooth.Adapter{{ID: a.ID, Address: a.Address, Name: a.Name, LE: true, Up: true}}, nil
}

// NewScanner ...
func (p *Platform) NewScanner(mode bluetooth.ScanningMode, a bluetooth.Adapter) (bluetooth.PlatformScanner, error) {
	if a.ID != p.session.Adapter.ID {
		return nil, errors.Errorf("replay: unknown adapter %s", a.ID)
	}
	return &scanner{p: p}, nil
}

type scanner struct {
	p *Platform

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (s *scanner) Start(ctx context.Context, h bluetooth.EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return errors.New("replay: already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.stop, s.done = make(chan struct{}), make(chan struct{})
	go s.play(h, s.stop, s.done)
	return nil
}

func (s *scanner) Stop() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (s *scanner) play(h bluetooth.EventHandler, stop, done chan struct{}) {
	defer close(done)
	c, sess := s.p.clock, s.p.session
	for {
		start := c.Now()
		for _, rec := range sess.Records {
			if d := start.Add(rec.Offset).Sub(c.Now()); d > 0 {
				t := c.Timer(d)
				select {
				case <-stop:
					t.Stop()
					return
				case <-t.C:
				}
			}
			select {
			case <-stop:
				return
			default:
			}
			e, err := rec.Event()
			if err != nil {
				logger.Warn("skipping record", "addr", rec.Addr, "err", err)
				continue
			}
			e.Time = c.Now()
			h(e)
		}
		if !sess.Loop || sess.Duration() == 0 {
			logger.Info("session finished", "records", len(sess.Records))
			<-stop
			return
		}
	}
}
