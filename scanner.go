package bluetooth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/emes30/bluetooth/uuid"
)

// Scanner is a scanner-style view of the coordinator's shared scan.
// Starting and stopping a Scanner only attaches and detaches its
// detection callbacks; the platform scan is owned by the coordinator.
type Scanner struct {
	c *Coordinator

	mu        sync.Mutex
	uuids     []string
	callbacks map[uint64]Callback
	nextID    uint64
	cancel    CancelFunc
}

// Scanner returns a new Scanner backed by c.
func (c *Coordinator) Scanner() *Scanner {
	return &Scanner{c: c, callbacks: make(map[uint64]Callback)}
}

// SetServiceUUIDs restricts detections and DiscoveredDevices to devices
// advertising any of the UUIDs. No UUIDs lifts the restriction.
func (s *Scanner) SetServiceUUIDs(uuids ...string) error {
	var n []string
	for _, u := range uuids {
		c, err := uuid.Normalize(u)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "service uuid %q: %v", u, err)
		}
		n = append(n, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uuids = n
	if s.cancel != nil {
		s.cancel()
		s.cancel = s.attach()
	}
	return nil
}

func (s *Scanner) matcher() Matcher {
	if len(s.uuids) == 0 {
		return MatchAll()
	}
	return Matcher{kind: MatchKindServiceUUID, uuids: s.uuids}
}

// Start attaches the detection callbacks to the shared scan.
func (s *Scanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	if !s.c.Running() {
		logger.Warn("scanner started while the coordinator is not scanning")
	}
	s.cancel = s.attach()
	return nil
}

// attach must be called with s.mu held.
func (s *Scanner) attach() CancelFunc {
	return s.c.RegisterCallback(s.matcher(), s.detected, ScanActive)
}

// Stop detaches the detection callbacks. The shared scan keeps running.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

// RegisterDetectionCallback calls cb for every detection while the
// Scanner is started.
func (s *Scanner) RegisterDetectionCallback(cb Callback) CancelFunc {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.callbacks[id] = cb
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.callbacks, id)
		s.mu.Unlock()
	}
}

func (s *Scanner) detected(a *Advertisement, change ChangeKind) {
	s.mu.Lock()
	cbs := make([]Callback, 0, len(s.callbacks))
	ids := make([]uint64, 0, len(s.callbacks))
	for id := range s.callbacks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		cbs = append(cbs, s.callbacks[id])
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		s.call(cb, a, change)
	}
}

func (s *Scanner) call(cb Callback, a *Advertisement, change ChangeKind) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("detection callback failed", "addr", a.addr, "err", r)
		}
	}()
	cb(a, change)
}

// DiscoveredDevices returns the latest advertisement of every device that
// passes the service UUID filter.
func (s *Scanner) DiscoveredDevices() []*Advertisement {
	s.mu.Lock()
	m := s.matcher()
	s.mu.Unlock()
	var l []*Advertisement
	for _, a := range s.c.Discovered() {
		if m.Match(a) {
			l = append(l, a)
		}
	}
	return l
}

// DeviceByAddress returns the latest advertisement of addr.
func (s *Scanner) DeviceByAddress(addr string) (*Advertisement, bool) {
	return s.c.LastAdvertisement(addr)
}

// Discover collects the devices detected during d and returns the latest
// advertisement of each, sorted by address. It never starts a scan of its
// own. A cancelled ctx ends the collection early with its error.
func (s *Scanner) Discover(ctx context.Context, d time.Duration) ([]*Advertisement, error) {
	s.mu.Lock()
	m := s.matcher()
	s.mu.Unlock()

	var mu sync.Mutex
	seen := make(map[string]*Advertisement)
	cancel := s.c.RegisterCallback(m, func(a *Advertisement, _ ChangeKind) {
		mu.Lock()
		seen[a.addr] = a
		mu.Unlock()
	}, ScanActive)

	t := s.c.clock.Timer(d)
	var err error
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
		err = errors.Wrap(ctx.Err(), "discover")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	l := make([]*Advertisement, 0, len(seen))
	for _, a := range seen {
		l = append(l, a)
	}
	sort.Slice(l, func(i, j int) bool { return l[i].addr < l[j].addr })
	return l, err
}
