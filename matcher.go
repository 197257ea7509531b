package bluetooth

import (
	"fmt"
	"strings"

	"github.com/emes30/bluetooth/uuid"
)

// MatchKind identifies the variant of a Matcher.
type MatchKind int

// MatchKind ...
const (
	MatchKindAll MatchKind = iota
	MatchKindAddress
	MatchKindLocalName
	MatchKindServiceUUID
	MatchKindManufacturerID
)

// Matcher is a predicate over advertisements. The zero value matches
// everything.
type Matcher struct {
	kind  MatchKind
	addr  string
	name  string
	uuids []string
	mfr   uint16
}

// MatchAll matches every advertisement.
func MatchAll() Matcher { return Matcher{kind: MatchKindAll} }

// MatchAddress matches advertisements from a single device.
func MatchAddress(addr string) Matcher {
	return Matcher{kind: MatchKindAddress, addr: NormalizeAddress(addr)}
}

// MatchLocalName matches advertisements whose local name starts with prefix.
func MatchLocalName(prefix string) Matcher {
	return Matcher{kind: MatchKindLocalName, name: prefix}
}

// MatchServiceUUID matches advertisements carrying any of the service
// UUIDs. An unparsable UUID never matches.
func MatchServiceUUID(uuids ...string) Matcher {
	m := Matcher{kind: MatchKindServiceUUID}
	for _, s := range uuids {
		if n, err := uuid.Normalize(s); err == nil {
			m.uuids = append(m.uuids, n)
		}
	}
	return m
}

// MatchManufacturerID matches advertisements carrying data for the company identifier.
func MatchManufacturerID(id uint16) Matcher {
	return Matcher{kind: MatchKindManufacturerID, mfr: id}
}

// Kind ...
func (m Matcher) Kind() MatchKind { return m.kind }

// Address returns the address of an address matcher.
func (m Matcher) Address() (string, bool) {
	return m.addr, m.kind == MatchKindAddress
}

// Match reports whether a satisfies the matcher.
func (m Matcher) Match(a *Advertisement) bool {
	if a == nil {
		return false
	}
	switch m.kind {
	case MatchKindAll:
		return true
	case MatchKindAddress:
		return a.addr == m.addr
	case MatchKindLocalName:
		return a.name != "" && strings.HasPrefix(a.name, m.name)
	case MatchKindServiceUUID:
		for _, u := range m.uuids {
			if a.hasServiceCanonical(u) {
				return true
			}
		}
		return false
	case MatchKindManufacturerID:
		_, ok := a.mfr[m.mfr]
		return ok
	}
	return false
}

func (m Matcher) String() string {
	switch m.kind {
	case MatchKindAll:
		return "all"
	case MatchKindAddress:
		return "address=" + m.addr
	case MatchKindLocalName:
		return "local_name=" + m.name + "*"
	case MatchKindServiceUUID:
		return "service_uuid=" + strings.Join(m.uuids, "|")
	case MatchKindManufacturerID:
		return fmt.Sprintf("manufacturer_id=0x%04X", m.mfr)
	}
	return "unknown"
}
