//go:build linux

package linux

import (
	"github.com/pkg/errors"

	"github.com/emes30/bluetooth"
)

// Platform scans through the kernel's HCI devices.
type Platform struct{}

// NewPlatform ...
func NewPlatform() *Platform {
	return &Platform{}
}

// Adapters lists the HCI devices.
func (p *Platform) Adapters() ([]bluetooth.Adapter, error) {
	return adapters()
}

// NewScanner returns a scanner for the HCI device a.
func (p *Platform) NewScanner(mode bluetooth.ScanningMode, a bluetooth.Adapter) (bluetooth.PlatformScanner, error) {
	id, err := deviceID(a.ID)
	if err != nil {
		return nil, errors.Wrap(err, "can't create scanner")
	}
	return &scanner{id: id, mode: mode}, nil
}
