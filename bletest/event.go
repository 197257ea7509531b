package bletest

import (
	"time"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/adv"
	"github.com/emes30/bluetooth/uuid"
)

// EventOption modifies an event built by NewEvent.
type EventOption func(*bluetooth.Event)

// NewEvent builds an advertisement event for addr.
func NewEvent(addr string, opts ...EventOption) bluetooth.Event {
	e := bluetooth.Event{Addr: addr, RSSI: -60}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// NewAdvertisement builds an advertisement for addr, as the coordinator would.
func NewAdvertisement(addr string, opts ...EventOption) *bluetooth.Advertisement {
	return bluetooth.NewAdvertisement(NewEvent(addr, opts...), bluetooth.SourceLocal)
}

// WithName sets the complete local name.
func WithName(n string) EventOption {
	return func(e *bluetooth.Event) { e.Data = e.Data.AppendCompleteName(n) }
}

// WithRSSI ...
func WithRSSI(rssi int) EventOption {
	return func(e *bluetooth.Event) { e.RSSI = rssi }
}

// WithServiceUUIDs adds a complete list of service UUIDs.
func WithServiceUUIDs(uuids ...string) EventOption {
	return func(e *bluetooth.Event) {
		for _, s := range uuids {
			e.Data = e.Data.AppendAllUUID(uuid.MustParse(s))
		}
	}
}

// WithManufacturerData adds manufacturer data for the company identifier.
func WithManufacturerData(id uint16, b []byte) EventOption {
	return func(e *bluetooth.Event) { e.Data = e.Data.AppendManufacturerData(id, b) }
}

// WithServiceData adds service data for the UUID.
func WithServiceData(u string, b []byte) EventOption {
	return func(e *bluetooth.Event) { e.Data = e.Data.AppendServiceData(uuid.MustParse(u), b) }
}

// WithScanResponse sets the scan response payload.
func WithScanResponse(p adv.Packet) EventOption {
	return func(e *bluetooth.Event) { e.ScanResponse = p }
}

// WithConnectable ...
func WithConnectable() EventOption {
	return func(e *bluetooth.Event) { e.Connectable = true }
}

// WithTime sets the observation time.
func WithTime(t time.Time) EventOption {
	return func(e *bluetooth.Event) { e.Time = t }
}

// WithDevice sets the platform device handle.
func WithDevice(d interface{}) EventOption {
	return func(e *bluetooth.Event) { e.Device = d }
}
