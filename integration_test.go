package bluetooth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/bletest"
)

func u16(v uint16) *uint16 { return &v }
func boolp(v bool) *bool  { return &v }

func TestIntegrationMatcher(t *testing.T) {
	specs := []bluetooth.IntegrationMatchSpec{
		{Domain: "beacon", ManufacturerID: u16(76), ManufacturerDataStart: []uint8{0x02, 0x15}},
		{Domain: "apple", ManufacturerID: u16(76)},
		{Domain: "battery", ServiceUUID: "180F"},
		{Domain: "bthome", ServiceDataUUID: "fcd2"},
		{Domain: "govee", LocalName: "GVH5*"},
		{Domain: "inkbird", LocalName: "sps"},
		{Domain: "lock", ManufacturerID: u16(465), Connectable: boolp(true)},
		{Domain: "both", ServiceUUID: "180A", LocalName: "Thermo"},
	}
	m, err := bluetooth.NewIntegrationMatcher(specs)
	require.NoError(t, err)
	assert.Equal(t, len(specs), m.Len())

	tests := []struct {
		name string
		a    *bluetooth.Advertisement
		want []string
	}{
		{"nothing", bletest.NewAdvertisement("AA:00:00:00:00:01"), nil},
		{"manufacturer id", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithManufacturerData(76, []byte{0x10, 0x05})), []string{"apple"}},
		{"manufacturer data start", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithManufacturerData(76, []byte{0x02, 0x15, 0x01})), []string{"apple", "beacon"}},
		{"service uuid", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithServiceUUIDs("1234", "180F")), []string{"battery"}},
		{"service data uuid", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithServiceData("FCD2", []byte{0x40})), []string{"bthome"}},
		{"service data is not a service uuid", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithServiceUUIDs("FCD2")), nil},
		{"glob", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithName("GVH5075_1234")), []string{"govee"}},
		{"glob anchored", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithName("xGVH5075")), nil},
		{"prefix", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithName("sps-01")), []string{"inkbird"}},
		{"connectable required", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithManufacturerData(465, []byte{0x01})), nil},
		{"connectable", bletest.NewAdvertisement("AA:00:00:00:00:01", bletest.WithConnectable(),
			bletest.WithManufacturerData(465, []byte{0x01})), []string{"lock"}},
		{"all criteria must match", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithServiceUUIDs("180A")), nil},
		{"all criteria match", bletest.NewAdvertisement("AA:00:00:00:00:01",
			bletest.WithServiceUUIDs("180A"), bletest.WithName("Thermo 1")), []string{"both"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.a))
		})
	}
}

func TestIntegrationSpecValidation(t *testing.T) {
	bad := []bluetooth.IntegrationMatchSpec{
		{ManufacturerID: u16(1)},
		{Domain: "empty"},
		{Domain: "start", ManufacturerDataStart: []uint8{1}},
		{Domain: "uuid", ServiceUUID: "not-a-uuid"},
		{Domain: "glob", LocalName: "[a-"},
	}
	for _, s := range bad {
		_, err := bluetooth.NewIntegrationMatcher([]bluetooth.IntegrationMatchSpec{s})
		assert.ErrorIs(t, err, bluetooth.ErrInvalidConfig, "%+v", s)
	}
}

func TestLoadIntegrationSpecs(t *testing.T) {
	specs, err := bluetooth.LoadIntegrationSpecs(strings.NewReader(`
integrations:
  - domain: ibeacon
    manufacturer_id: 76
    manufacturer_data_start: [2, 21]
  - domain: lock
    manufacturer_id: 465
    connectable: true
  - domain: thermo
    local_name: "TP35*"
`))
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "ibeacon", specs[0].Domain)
	require.NotNil(t, specs[0].ManufacturerID)
	assert.Equal(t, uint16(76), *specs[0].ManufacturerID)
	assert.Equal(t, []uint8{2, 21}, specs[0].ManufacturerDataStart)
	require.NotNil(t, specs[1].Connectable)
	assert.True(t, *specs[1].Connectable)
	assert.Equal(t, "TP35*", specs[2].LocalName)

	_, err = bluetooth.LoadIntegrationSpecs(strings.NewReader("integrations:\n  - domain: x\n    colour: red\n"))
	assert.ErrorIs(t, err, bluetooth.ErrInvalidConfig)

	specs, err = bluetooth.LoadIntegrationSpecs(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestDefaultIntegrationSpecs(t *testing.T) {
	specs := bluetooth.DefaultIntegrationSpecs()
	require.NotEmpty(t, specs)
	m, err := bluetooth.NewIntegrationMatcher(specs)
	require.NoError(t, err)

	ibeacon := bletest.NewAdvertisement("AA:00:00:00:00:01",
		bletest.WithManufacturerData(76, []byte{0x02, 0x15, 0xAA}))
	assert.Contains(t, m.Match(ibeacon), "ibeacon")

	bthome := bletest.NewAdvertisement("AA:00:00:00:00:01",
		bletest.WithServiceData("FCD2", []byte{0x40, 0x02}))
	assert.Equal(t, []string{"bthome"}, m.Match(bthome))
}
