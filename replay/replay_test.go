package replay_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/bletest"
	"github.com/emes30/bluetooth/replay"
)

const session = `
adapter:
  id: hci0
  address: 00:11:22:33:44:55
records:
  - offset: 0s
    addr: aa:bb:cc:00:00:01
    rssi: -61
    name: GVH5075_ABCD
    manufacturer_data:
      60552: 00ab12
  - offset: 10ms
    addr: AA:BB:CC:00:00:02
    rssi: -70
    service_uuids: ["180f"]
    service_data:
      fcd2: "4002c409"
    connectable: true
  - offset: 20ms
    addr: AA:BB:CC:00:00:01
    rssi: -55
    tx_power: 4
`

func TestDecode(t *testing.T) {
	s, err := replay.Decode(strings.NewReader(session))
	require.NoError(t, err)
	assert.Equal(t, "hci0", s.Adapter.ID)
	require.Len(t, s.Records, 3)
	assert.Equal(t, 20*time.Millisecond, s.Duration())

	e, err := s.Records[0].Event()
	require.NoError(t, err)
	a := bluetooth.NewAdvertisement(e, "")
	assert.Equal(t, "AA:BB:CC:00:00:01", a.Address())
	assert.Equal(t, "GVH5075_ABCD", a.LocalName())
	b, ok := a.Manufacturer(60552)
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0xab, 0x12}, b)

	e, err = s.Records[1].Event()
	require.NoError(t, err)
	a = bluetooth.NewAdvertisement(e, "")
	assert.True(t, a.HasService("180F"))
	assert.True(t, a.Connectable())
	assert.Len(t, a.ServiceData(), 1)
}

func TestDecodeInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown field": "records:\n  - addr: AA:BB:CC:00:00:01\n    colour: red\n",
		"no addr":       "records:\n  - rssi: -60\n",
		"bad hex":       "records:\n  - addr: AA:BB:CC:00:00:01\n    manufacturer_data:\n      76: xyz\n",
		"bad uuid":      "records:\n  - addr: AA:BB:CC:00:00:01\n    service_uuids: [nope]\n",
		"out of order":  "records:\n  - addr: A\n    offset: 2s\n  - addr: B\n    offset: 1s\n",
		"instant loop":  "loop: true\nrecords:\n  - addr: A\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := replay.Decode(strings.NewReader(data))
			assert.Error(t, err)
		})
	}
}

func TestPlayback(t *testing.T) {
	s, err := replay.Decode(strings.NewReader(session))
	require.NoError(t, err)

	c, err := bluetooth.New(replay.NewPlatform(s, nil), bluetooth.OptWatchdog(0, 0))
	require.NoError(t, err)
	defer c.Close()

	got := make(chan struct{}, 3)
	c.RegisterCallback(bluetooth.MatchAll(), func(*bluetooth.Advertisement, bluetooth.ChangeKind) {
		got <- struct{}{}
	}, bluetooth.ScanActive)
	require.NoError(t, c.Start(context.Background(), "", ""))

	for i := 0; i < 3; i++ {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d of 3 advertisements", i)
		}
	}
	a, ok := c.LastAdvertisement("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.Equal(t, -55, a.RSSI())
	pwr, ok := a.TxPower()
	require.True(t, ok)
	assert.Equal(t, 4, pwr)
	assert.Len(t, c.Discovered(), 2)
	require.NoError(t, c.Stop())
}

func TestPlatformUnknownAdapter(t *testing.T) {
	s, err := replay.Decode(strings.NewReader(session))
	require.NoError(t, err)
	c, err := bluetooth.New(replay.NewPlatform(s, nil), bluetooth.OptWatchdog(0, 0))
	require.NoError(t, err)
	defer c.Close()

	err = c.Start(context.Background(), "", "hci3")
	assert.ErrorIs(t, err, bluetooth.ErrAdapterUnavailable)
}

func TestRecordRoundTrip(t *testing.T) {
	p := bletest.NewPlatform()
	c, err := bluetooth.New(p, bluetooth.OptWatchdog(0, 0))
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Start(context.Background(), "", ""))

	adapter, _ := c.Adapter()
	r := replay.NewRecorder(adapter)
	c.RegisterCallback(bluetooth.MatchAll(), r.Record, bluetooth.ScanActive)

	t0 := time.Now()
	p.Inject(bletest.NewEvent("AA:BB:CC:00:00:01", bletest.WithTime(t0),
		bletest.WithName("Thermo"), bletest.WithManufacturerData(76, []byte{2, 21})))
	p.Inject(bletest.NewEvent("AA:BB:CC:00:00:02", bletest.WithTime(t0.Add(5*time.Millisecond)),
		bletest.WithServiceUUIDs("180F"), bletest.WithServiceData("FCD2", []byte{0x40})))
	c.Wait()
	require.Equal(t, 2, r.Len())

	var buf bytes.Buffer
	require.NoError(t, r.Session().Encode(&buf))
	assert.Contains(t, buf.String(), "180f")
	assert.Contains(t, buf.String(), "fcd2")

	s, err := replay.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, s.Records, 2)
	assert.Equal(t, adapter.ID, s.Adapter.ID)
	assert.Equal(t, 5*time.Millisecond, s.Records[1].Offset)

	e, err := s.Records[1].Event()
	require.NoError(t, err)
	a := bluetooth.NewAdvertisement(e, "")
	assert.True(t, a.HasService("180f"))
	b, ok := a.ServiceData()["0000fcd2-0000-1000-8000-00805f9b34fb"]
	require.True(t, ok)
	assert.Equal(t, []byte{0x40}, b)
}
