package bluetooth

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// DefaultMaxHistory bounds the number of addresses remembered for
// discovery.
const DefaultMaxHistory = 2048

type seenFields uint8

const (
	seenManufacturerData seenFields = 1 << iota
	seenServiceData
	seenServiceUUIDs
)

func fieldsOf(a *Advertisement) seenFields {
	var f seenFields
	if len(a.mfr) > 0 {
		f |= seenManufacturerData
	}
	if len(a.svcData) > 0 {
		f |= seenServiceData
	}
	if len(a.svcUUIDs) > 0 {
		f |= seenServiceUUIDs
	}
	return f
}

// discoveryHistory remembers, per address, which kinds of payload were
// already offered to integrations. Devices rotate their payloads; a
// device is offered again only when a kind shows up it hasn't sent before.
type discoveryHistory struct {
	cache *lru.Cache[string, seenFields]
}

func newDiscoveryHistory(size int) (*discoveryHistory, error) {
	if size <= 0 {
		size = DefaultMaxHistory
	}
	c, err := lru.New[string, seenFields](size)
	if err != nil {
		return nil, errors.Wrap(err, "create discovery history")
	}
	return &discoveryHistory{cache: c}, nil
}

// novel records a and reports whether it carries a payload kind not seen
// for its address before. The first advertisement of an address is novel.
func (h *discoveryHistory) novel(a *Advertisement) bool {
	cur := fieldsOf(a)
	prev, ok := h.cache.Get(a.addr)
	if ok && prev|cur == prev {
		return false
	}
	h.cache.Add(a.addr, prev|cur)
	return true
}

func (h *discoveryHistory) forget(addr string) {
	h.cache.Remove(addr)
}

func (h *discoveryHistory) reset() {
	h.cache.Purge()
}

func (h *discoveryHistory) len() int {
	return h.cache.Len()
}
