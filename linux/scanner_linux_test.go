//go:build linux

package linux

import (
	"testing"

	"github.com/paypal/gatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emes30/bluetooth"
)

func TestEvent(t *testing.T) {
	a := &gatt.Advertisement{
		LocalName:        "Thermo",
		ManufacturerData: []byte{0x4c, 0x00, 0x02, 0x15},
		Services:         []gatt.UUID{gatt.UUID16(0x180f)},
		ServiceData:      []gatt.ServiceData{{UUID: gatt.UUID16(0xfe95), Data: []byte{1, 2}}},
		TxPowerLevel:     -4,
		Connectable:      true,
	}
	e := event("aa:bb:cc:dd:ee:ff", a, -70, nil)
	assert.Equal(t, -70, e.RSSI)
	assert.True(t, e.Connectable)

	r := bluetooth.NewAdvertisement(e, "")
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", r.Address())
	assert.Equal(t, "Thermo", r.LocalName())
	assert.True(t, r.HasService("180F"))

	b, ok := r.Manufacturer(0x004c)
	require.True(t, ok)
	assert.Equal(t, []byte{0x02, 0x15}, b)

	sd := r.ServiceData()
	assert.Equal(t, []byte{1, 2}, sd["0000fe95-0000-1000-8000-00805f9b34fb"])

	pwr, ok := r.TxPower()
	require.True(t, ok)
	assert.Equal(t, -4, pwr)
}

func TestEventZeroTxPower(t *testing.T) {
	e := event("aa:bb:cc:dd:ee:ff", &gatt.Advertisement{LocalName: "Plug"}, -60, nil)
	r := bluetooth.NewAdvertisement(e, "")
	_, ok := r.TxPower()
	assert.False(t, ok)
	assert.Equal(t, "Plug", r.LocalName())
}
