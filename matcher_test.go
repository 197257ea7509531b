package bluetooth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/bletest"
)

func TestMatchServiceUUID(t *testing.T) {
	m := bluetooth.MatchServiceUUID("180F")
	assert.True(t, m.Match(bletest.NewAdvertisement("AA:00:00:00:00:01", bletest.WithServiceUUIDs("180F", "1234"))))
	assert.False(t, m.Match(bletest.NewAdvertisement("AA:00:00:00:00:01", bletest.WithServiceUUIDs("1234"))))

	long := bluetooth.MatchServiceUUID("0000180f-0000-1000-8000-00805f9b34fb")
	assert.True(t, long.Match(bletest.NewAdvertisement("AA:00:00:00:00:01", bletest.WithServiceUUIDs("180f"))))

	assert.False(t, bluetooth.MatchServiceUUID("nope").Match(bletest.NewAdvertisement("AA:00:00:00:00:01", bletest.WithServiceUUIDs("180f"))))
}

func TestMatchers(t *testing.T) {
	a := bletest.NewAdvertisement("aa:bb:cc:dd:ee:ff",
		bletest.WithName("Thermo 42"),
		bletest.WithManufacturerData(0x004c, []byte{0x02}),
	)

	tests := []struct {
		name string
		m    bluetooth.Matcher
		want bool
	}{
		{"all", bluetooth.MatchAll(), true},
		{"zero value", bluetooth.Matcher{}, true},
		{"address", bluetooth.MatchAddress("AA:BB:CC:DD:EE:FF"), true},
		{"address lower case", bluetooth.MatchAddress("aa:bb:cc:dd:ee:ff"), true},
		{"other address", bluetooth.MatchAddress("AA:BB:CC:DD:EE:00"), false},
		{"name prefix", bluetooth.MatchLocalName("Thermo"), true},
		{"name mismatch", bluetooth.MatchLocalName("Hygro"), false},
		{"manufacturer", bluetooth.MatchManufacturerID(0x004c), true},
		{"other manufacturer", bluetooth.MatchManufacturerID(0x0075), false},
		{"service", bluetooth.MatchServiceUUID("180f"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Match(a), tt.m.String())
		})
	}

	assert.False(t, bluetooth.MatchLocalName("").Match(bletest.NewAdvertisement("AA:BB:CC:DD:EE:FF")))
	assert.False(t, bluetooth.MatchAll().Match(nil))
}

func TestMatcherAddress(t *testing.T) {
	addr, ok := bluetooth.MatchAddress("aa:bb:cc:dd:ee:ff").Address()
	assert.True(t, ok)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", addr)

	_, ok = bluetooth.MatchAll().Address()
	assert.False(t, ok)
}
