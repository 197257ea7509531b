package bluetooth_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emes30/bluetooth"
)

const interval = 300 * time.Second

func TestUnavailableTouchPostponesExpiry(t *testing.T) {
	mc := clock.NewMock()
	tr := bluetooth.NewUnavailableTracker(mc, interval)
	defer tr.Stop()

	var fired int32
	tr.Touch("aa:bb:cc:dd:ee:ff")
	tr.Watch("AA:BB:CC:DD:EE:FF", func(string) { atomic.AddInt32(&fired, 1) })

	mc.Add(200 * time.Second)
	tr.Touch("AA:BB:CC:DD:EE:FF")
	mc.Add(200 * time.Second)
	assert.Never(t, func() bool { return atomic.LoadInt32(&fired) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	deadline, ok := tr.Deadline("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	assert.Equal(t, mc.Now().Add(100*time.Second), deadline)

	mc.Add(100 * time.Second)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, time.Millisecond)
	assert.False(t, tr.Tracked("AA:BB:CC:DD:EE:FF"))
}

func TestUnavailableFiresOnce(t *testing.T) {
	mc := clock.NewMock()
	tr := bluetooth.NewUnavailableTracker(mc, interval)
	defer tr.Stop()

	var mu sync.Mutex
	var got []string
	var expired []string
	tr.OnExpire = func(addr string) {
		mu.Lock()
		expired = append(expired, addr)
		mu.Unlock()
	}
	tr.Watch("AA:BB:CC:DD:EE:01", func(addr string) {
		mu.Lock()
		got = append(got, addr)
		mu.Unlock()
	})

	mc.Add(interval)
	mc.Add(interval)
	mc.Add(interval)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(expired) == 1
	}, time.Second, time.Millisecond)
	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 1 || len(expired) > 1
	}, 50*time.Millisecond, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"AA:BB:CC:DD:EE:01"}, got)
	assert.Equal(t, []string{"AA:BB:CC:DD:EE:01"}, expired)
	assert.Equal(t, 0, tr.Len())
}

func TestUnavailableCancel(t *testing.T) {
	mc := clock.NewMock()
	tr := bluetooth.NewUnavailableTracker(mc, interval)
	defer tr.Stop()

	var kept, cancelled int32
	expired := make(chan string, 1)
	tr.OnExpire = func(addr string) { expired <- addr }
	cancel := tr.Watch("AA:BB:CC:DD:EE:02", func(string) { atomic.AddInt32(&cancelled, 1) })
	tr.Watch("AA:BB:CC:DD:EE:02", func(string) { atomic.AddInt32(&kept, 1) })
	cancel()
	cancel()

	mc.Add(interval)
	select {
	case addr := <-expired:
		assert.Equal(t, "AA:BB:CC:DD:EE:02", addr)
	case <-time.After(time.Second):
		t.Fatal("address did not expire")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&kept))
	assert.Equal(t, int32(0), atomic.LoadInt32(&cancelled))
}

func TestUnavailablePanickingWatcher(t *testing.T) {
	mc := clock.NewMock()
	tr := bluetooth.NewUnavailableTracker(mc, interval)
	defer tr.Stop()

	expired := make(chan string, 1)
	tr.OnExpire = func(addr string) { expired <- addr }
	tr.Watch("AA:BB:CC:DD:EE:03", func(string) { panic("boom") })

	mc.Add(interval)
	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("panicking watcher stopped the expiry")
	}
}

func TestUnavailableStop(t *testing.T) {
	mc := clock.NewMock()
	tr := bluetooth.NewUnavailableTracker(mc, interval)

	var fired int32
	tr.Watch("AA:BB:CC:DD:EE:04", func(string) { atomic.AddInt32(&fired, 1) })
	tr.Touch("AA:BB:CC:DD:EE:05")
	assert.Equal(t, 2, tr.Len())

	tr.Stop()
	assert.Equal(t, 0, tr.Len())
	mc.Add(2 * interval)
	assert.Never(t, func() bool { return atomic.LoadInt32(&fired) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestUnavailablePauseResume(t *testing.T) {
	mc := clock.NewMock()
	tr := bluetooth.NewUnavailableTracker(mc, interval)
	defer tr.Stop()

	var fired int32
	tr.Watch("AA:BB:CC:DD:EE:06", func(string) { atomic.AddInt32(&fired, 1) })
	mc.Add(interval / 2)

	tr.Pause()
	mc.Add(2 * interval)
	assert.Never(t, func() bool { return atomic.LoadInt32(&fired) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.True(t, tr.Tracked("AA:BB:CC:DD:EE:06"))

	// A paused tracker still takes new watchers and touches.
	tr.Touch("AA:BB:CC:DD:EE:07")
	assert.Equal(t, 2, tr.Len())

	tr.Resume()
	d, ok := tr.Deadline("AA:BB:CC:DD:EE:06")
	require.True(t, ok)
	assert.Equal(t, mc.Now().Add(interval), d)

	mc.Add(interval - time.Second)
	assert.Never(t, func() bool { return atomic.LoadInt32(&fired) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	mc.Add(time.Second)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return tr.Len() == 0 }, time.Second, time.Millisecond)
}

func TestUnavailableDefaults(t *testing.T) {
	tr := bluetooth.NewUnavailableTracker(nil, 0)
	defer tr.Stop()
	assert.Equal(t, bluetooth.DefaultUnavailableInterval, tr.Interval())
}
