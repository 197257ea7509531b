package bluetooth

import (
	"sort"
	"time"

	"github.com/emes30/bluetooth/adv"
	"github.com/emes30/bluetooth/uuid"
)

// SourceLocal is the source of advertisements received by the local adapter.
const SourceLocal = "local"

// Advertisement is an immutable snapshot of one observed advertisement.
// A newer advertisement for the same address replaces it in the registry;
// nothing mutates it once built.
type Advertisement struct {
	addr        string
	name        string
	rssi        int
	mfr         map[uint16][]byte
	svcData     map[string][]byte
	svcUUIDs    map[string]struct{}
	source      string
	connectable bool
	txPower     int
	hasTxPower  bool
	at          time.Time
	device      interface{}
}

// NewAdvertisement builds an Advertisement from a platform event. The
// advertising data and the scan response are merged; fields of the scan
// response win when both carry them.
func NewAdvertisement(e Event, source string) *Advertisement {
	if source == "" {
		source = SourceLocal
	}
	a := &Advertisement{
		addr:        NormalizeAddress(e.Addr),
		rssi:        e.RSSI,
		mfr:         map[uint16][]byte{},
		svcData:     map[string][]byte{},
		svcUUIDs:    map[string]struct{}{},
		source:      source,
		connectable: e.Connectable,
		at:          e.Time,
		device:      e.Device,
	}
	for _, p := range []adv.Packet{e.Data, e.ScanResponse} {
		a.merge(p)
	}
	return a
}

func (a *Advertisement) merge(p adv.Packet) {
	if len(p) == 0 {
		return
	}
	if n := p.LocalName(); n != "" {
		a.name = n
	}
	if pwr, ok := p.TxPower(); ok {
		a.txPower, a.hasTxPower = pwr, true
	}
	for _, m := range p.Manufacturers() {
		a.mfr[m.ID] = m.Data
	}
	for _, sd := range p.ServiceData() {
		a.svcData[sd.UUID.Canonical()] = sd.Data
	}
	for _, u := range p.UUIDs() {
		a.svcUUIDs[u.Canonical()] = struct{}{}
	}
}

// Address returns the normalized device address.
func (a *Advertisement) Address() string { return a.addr }

// LocalName returns the advertised local name, or "" when none was sent.
func (a *Advertisement) LocalName() string { return a.name }

// RSSI ...
func (a *Advertisement) RSSI() int { return a.rssi }

// Source returns the identifier of the scanner that observed the advertisement.
func (a *Advertisement) Source() string { return a.source }

// Connectable ...
func (a *Advertisement) Connectable() bool { return a.connectable }

// TxPower returns the advertised tx power level, if any.
func (a *Advertisement) TxPower() (int, bool) { return a.txPower, a.hasTxPower }

// Time returns the observation time.
func (a *Advertisement) Time() time.Time { return a.at }

// Device returns the platform's handle for the device. The handle is owned
// by the platform; the advertisement only refers to it.
func (a *Advertisement) Device() interface{} { return a.device }

// ManufacturerData returns a copy of the manufacturer data keyed by company identifier.
func (a *Advertisement) ManufacturerData() map[uint16][]byte {
	m := make(map[uint16][]byte, len(a.mfr))
	for id, b := range a.mfr {
		m[id] = append([]byte(nil), b...)
	}
	return m
}

// Manufacturer returns the payload for one company identifier.
func (a *Advertisement) Manufacturer(id uint16) ([]byte, bool) {
	b, ok := a.mfr[id]
	return append([]byte(nil), b...), ok
}

// ServiceData returns a copy of the service data keyed by canonical UUID.
func (a *Advertisement) ServiceData() map[string][]byte {
	m := make(map[string][]byte, len(a.svcData))
	for u, b := range a.svcData {
		m[u] = append([]byte(nil), b...)
	}
	return m
}

// ServiceUUIDs returns the advertised service UUIDs in canonical form, sorted.
func (a *Advertisement) ServiceUUIDs() []string {
	s := make([]string, 0, len(a.svcUUIDs))
	for u := range a.svcUUIDs {
		s = append(s, u)
	}
	sort.Strings(s)
	return s
}

// HasService reports whether the service UUID u was advertised. u may be
// in any form uuid.Parse accepts.
func (a *Advertisement) HasService(u string) bool {
	n, err := uuid.Normalize(u)
	if err != nil {
		return false
	}
	_, ok := a.svcUUIDs[n]
	return ok
}

func (a *Advertisement) hasServiceCanonical(u string) bool {
	_, ok := a.svcUUIDs[u]
	return ok
}

func (a *Advertisement) hasServiceData(u string) bool {
	_, ok := a.svcData[u]
	return ok
}
