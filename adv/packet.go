package adv

import (
	"encoding/binary"

	"github.com/emes30/bluetooth/uuid"
)

// Packet is an utility to craft or parse advertising payloads (EIR format).
// Refer to Supplement to Bluetooth Core Specification | CSSv6, Part A
//
// A Packet may hold the advertising data and the scan response
// concatenated; nothing here enforces MaxEIRPacketLength.
type Packet []byte

// ServiceData is the payload attached to a service UUID.
type ServiceData struct {
	UUID uuid.UUID
	Data []byte
}

// ManufacturerSpecific is a manufacturer data field split into the
// company identifier and the payload that follows it.
type ManufacturerSpecific struct {
	ID   uint16
	Data []byte
}

// each calls fn for every well-formed field of the packet, in order.
// Parsing stops at the first truncated field or zero-length terminator.
func (p Packet) each(fn func(typ byte, b []byte)) {
	b := p
	for len(b) >= 2 {
		l := int(b[0])
		if l == 0 || len(b) < 1+l {
			return
		}
		fn(b[1], b[2:1+l])
		b = b[1+l:]
	}
}

// Field returns the data of the first field of type typ (excluding the
// length and type bytes). It returns nil, if the field is not found.
func (p Packet) Field(typ byte) []byte {
	var f []byte
	found := false
	p.each(func(t byte, b []byte) {
		if !found && t == typ {
			f, found = b, true
		}
	})
	return f
}

// Fields returns the data of every field of type typ.
func (p Packet) Fields(typ byte) [][]byte {
	var fs [][]byte
	p.each(func(t byte, b []byte) {
		if t == typ {
			fs = append(fs, b)
		}
	})
	return fs
}

// Flags ...
func (p Packet) Flags() (byte, bool) {
	b := p.Field(Flags)
	if len(b) < 1 {
		return 0, false
	}
	return b[0], true
}

// LocalName returns the complete local name, or the shortened one.
func (p Packet) LocalName() string {
	if b := p.Field(CompleteName); b != nil {
		return string(b)
	}
	return string(p.Field(ShortName))
}

// TxPower ...
func (p Packet) TxPower() (int, bool) {
	b := p.Field(TxPower)
	if len(b) < 1 {
		return 0, false
	}
	return int(int8(b[0])), true
}

// UUIDs returns every advertised service UUID, complete or incomplete lists.
func (p Packet) UUIDs() []uuid.UUID {
	var u []uuid.UUID
	p.each(func(t byte, b []byte) {
		switch t {
		case SomeUUID16, AllUUID16:
			u = uuidList(u, b, 2)
		case SomeUUID32, AllUUID32:
			u = uuidList(u, b, 4)
		case SomeUUID128, AllUUID128:
			u = uuidList(u, b, 16)
		}
	})
	return u
}

// ServiceSol ...
func (p Packet) ServiceSol() []uuid.UUID {
	var u []uuid.UUID
	p.each(func(t byte, b []byte) {
		switch t {
		case ServiceSol16:
			u = uuidList(u, b, 2)
		case ServiceSol32:
			u = uuidList(u, b, 4)
		case ServiceSol128:
			u = uuidList(u, b, 16)
		}
	})
	return u
}

// ServiceData ...
func (p Packet) ServiceData() []ServiceData {
	var s []ServiceData
	p.each(func(t byte, b []byte) {
		switch t {
		case ServiceData16:
			s = serviceDataList(s, b, 2)
		case ServiceData32:
			s = serviceDataList(s, b, 4)
		case ServiceData128:
			s = serviceDataList(s, b, 16)
		}
	})
	return s
}

// ManufacturerData returns the raw data of the first manufacturer field,
// company identifier included.
func (p Packet) ManufacturerData() []byte {
	return p.Field(ManufacturerData)
}

// Manufacturers returns every manufacturer field split by company identifier.
// Fields shorter than the identifier are skipped.
func (p Packet) Manufacturers() []ManufacturerSpecific {
	var m []ManufacturerSpecific
	for _, b := range p.Fields(ManufacturerData) {
		if len(b) < 2 {
			continue
		}
		d := make([]byte, len(b)-2)
		copy(d, b[2:])
		m = append(m, ManufacturerSpecific{ID: binary.LittleEndian.Uint16(b), Data: d})
	}
	return m
}

// AppendField appends p BLE advertising packet field.
func (p Packet) AppendField(typ byte, b []byte) Packet {
	p = append(p, byte(len(b)+1))
	p = append(p, typ)
	return append(p, b...)
}

// AppendFlags appends p flag field to the packet.
func (p Packet) AppendFlags(f byte) Packet {
	return p.AppendField(Flags, []byte{f})
}

// AppendShortName appends p name field to the packet.
func (p Packet) AppendShortName(n string) Packet {
	return p.AppendField(ShortName, []byte(n))
}

// AppendCompleteName appends p name field to the packet.
func (p Packet) AppendCompleteName(n string) Packet {
	return p.AppendField(CompleteName, []byte(n))
}

// AppendTxPower appends a tx power level field to the packet.
func (p Packet) AppendTxPower(pwr int) Packet {
	return p.AppendField(TxPower, []byte{byte(int8(pwr))})
}

// AppendManufacturerData appends p manufacturer data field to the packet.
func (p Packet) AppendManufacturerData(id uint16, b []byte) Packet {
	d := append([]byte{uint8(id), uint8(id >> 8)}, b...)
	return p.AppendField(ManufacturerData, d)
}

// AppendServiceData appends a service data field, sized by the UUID width.
func (p Packet) AppendServiceData(u uuid.UUID, b []byte) Packet {
	d := append(append([]byte{}, u...), b...)
	switch u.Len() {
	case 2:
		return p.AppendField(ServiceData16, d)
	case 4:
		return p.AppendField(ServiceData32, d)
	}
	return p.AppendField(ServiceData128, d)
}

// AppendAllUUID appends p BLE advertised service UUID
func (p Packet) AppendAllUUID(u uuid.UUID) Packet {
	if u.Len() == 2 {
		return p.AppendField(AllUUID16, u)
	}
	if u.Len() == 4 {
		return p.AppendField(AllUUID32, u)
	}
	return p.AppendField(AllUUID128, u)
}

// AppendSomeUUID appends p BLE advertised service UUID
func (p Packet) AppendSomeUUID(u uuid.UUID) Packet {
	if u.Len() == 2 {
		return p.AppendField(SomeUUID16, u)
	}
	if u.Len() == 4 {
		return p.AppendField(SomeUUID32, u)
	}
	return p.AppendField(SomeUUID128, u)
}

// Len ...
func (p Packet) Len() int {
	return len(p)
}

// Utility function for creating p list of uuids.
// A trailing partial UUID is dropped.
func uuidList(u []uuid.UUID, d []byte, w int) []uuid.UUID {
	for len(d) >= w {
		u = append(u, uuid.UUID(append([]byte(nil), d[:w]...)))
		d = d[w:]
	}
	return u
}

func serviceDataList(sd []ServiceData, d []byte, w int) []ServiceData {
	if len(d) < w {
		return sd
	}
	serviceData := ServiceData{
		UUID: uuid.UUID(append([]byte(nil), d[:w]...)),
		Data: make([]byte, len(d)-w),
	}
	copy(serviceData.Data, d[w:])
	return append(sd, serviceData)
}
