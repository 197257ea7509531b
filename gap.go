package bluetooth

import (
	"context"
	"time"

	"github.com/emes30/bluetooth/adv"
)

// ScanningMode selects how the platform scans.
type ScanningMode string

// ScanningMode ...
const (
	ScanActive ScanningMode = "active"

	// ScanPassive is accepted but not implemented: it scans actively.
	ScanPassive ScanningMode = "passive"
)

// DefaultAdapters are adapter identifiers that select the first LE capable adapter.
var DefaultAdapters = []string{"hci0", "CoreBluetooth"}

// Adapter describes a local radio as reported by the platform.
type Adapter struct {
	ID      string
	Address string
	Name    string
	LE      bool
	Up      bool
}

// Event is a raw advertisement as reported by the platform.
type Event struct {
	Addr         string
	RSSI         int
	Data         adv.Packet
	ScanResponse adv.Packet
	Connectable  bool

	// Device is the platform's handle for the remote device.
	Device interface{}

	// Time is the observation time. The coordinator stamps events that
	// leave it zero.
	Time time.Time
}

// EventHandler receives events from a PlatformScanner. Events are
// delivered serially.
type EventHandler func(e Event)

// A Platform enumerates adapters and builds scanners for them.
type Platform interface {
	Adapters() ([]Adapter, error)
	NewScanner(mode ScanningMode, a Adapter) (PlatformScanner, error)
}

// A PlatformScanner is an observer bound to one adapter.
type PlatformScanner interface {
	// Start starts scanning and returns once events flow to h. ctx bounds
	// the start up only, not the scan.
	Start(ctx context.Context, h EventHandler) error

	// Stop stops scanning. No events are delivered after it returns.
	Stop() error
}
