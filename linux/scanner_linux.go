//go:build linux

package linux

import (
	"context"
	"sync"

	"github.com/paypal/gatt"
	"github.com/pkg/errors"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/adv"
	"github.com/emes30/bluetooth/uuid"
)

// scanner observes advertisements through a gatt device bound to one HCI
// device.
type scanner struct {
	id   int
	mode bluetooth.ScanningMode

	mu  sync.Mutex
	dev gatt.Device
	h   bluetooth.EventHandler
}

func (s *scanner) Start(ctx context.Context, h bluetooth.EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev != nil {
		return errors.New("scanner already started")
	}

	d, err := gatt.NewDevice(gatt.LnxDeviceID(s.id, false), gatt.LnxMaxConnections(1))
	if err != nil {
		return errors.Wrapf(err, "can't open hci%d", s.id)
	}
	s.h = h
	d.Handle(gatt.PeripheralDiscovered(s.discovered))

	state := make(chan gatt.State, 1)
	if err := d.Init(func(_ gatt.Device, st gatt.State) {
		select {
		case state <- st:
		default:
		}
	}); err != nil {
		d.(stopper).Stop()
		return errors.Wrapf(err, "can't init hci%d", s.id)
	}

	select {
	case st := <-state:
		if st != gatt.StatePoweredOn {
			d.(stopper).Stop()
			return errors.Errorf("hci%d is %v", s.id, st)
		}
	case <-ctx.Done():
		d.(stopper).Stop()
		return ctx.Err()
	}

	// Duplicates are kept: every advertisement refreshes RSSI and the
	// unavailable deadline of its device.
	d.Scan([]gatt.UUID{}, true)
	s.dev = d
	logger.Info("scanning", "dev", s.id, "mode", string(s.mode))
	return nil
}

func (s *scanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	s.dev.StopScanning()
	err := s.dev.(stopper).Stop()
	s.dev, s.h = nil, nil
	return errors.Wrapf(err, "can't stop hci%d", s.id)
}

func (s *scanner) discovered(p gatt.Peripheral, a *gatt.Advertisement, rssi int) {
	s.mu.Lock()
	h := s.h
	s.mu.Unlock()
	if h == nil {
		return
	}
	h(event(p.ID(), a, rssi, p))
}

// event re-encodes a gatt advertisement into a platform event.
func event(id string, a *gatt.Advertisement, rssi int, dev interface{}) bluetooth.Event {
	var p adv.Packet
	if a.LocalName != "" {
		p = p.AppendCompleteName(a.LocalName)
	}
	// gatt keeps no presence flag for the TX power level, so a device
	// advertising 0 dBm is indistinguishable from one advertising none and
	// is reported without TX power.
	if a.TxPowerLevel != 0 {
		p = p.AppendTxPower(a.TxPowerLevel)
	}
	if len(a.ManufacturerData) >= 2 {
		p = p.AppendField(adv.ManufacturerData, a.ManufacturerData)
	}
	for _, u := range a.Services {
		if v, err := uuid.Parse(u.String()); err == nil {
			p = p.AppendAllUUID(v)
		}
	}
	for _, u := range a.OverflowService {
		if v, err := uuid.Parse(u.String()); err == nil {
			p = p.AppendSomeUUID(v)
		}
	}
	for _, sd := range a.ServiceData {
		if v, err := uuid.Parse(sd.UUID.String()); err == nil {
			p = p.AppendServiceData(v, sd.Data)
		}
	}
	return bluetooth.Event{
		Addr:        id,
		RSSI:        rssi,
		Data:        p,
		Connectable: a.Connectable,
		Device:      dev,
	}
}

// stopper is implemented by the Linux gatt device; gatt.Device does not
// declare Stop.
type stopper interface{ Stop() error }
