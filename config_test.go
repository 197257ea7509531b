package bluetooth_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mgutz/logxi/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/bletest"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := bluetooth.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, bluetooth.DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	name := writeFile(t, "bluetooth.yaml", `
adapter: hci1
mode: passive
start_timeout: 5s
unavailable_interval: 2m
watchdog_interval: 0s
log_level: debug
`)
	cfg, err := bluetooth.LoadConfig(name)
	require.NoError(t, err)
	assert.Equal(t, "hci1", cfg.Adapter)
	assert.Equal(t, bluetooth.ScanPassive, cfg.Mode)
	assert.Equal(t, 5*time.Second, cfg.StartTimeout)
	assert.Equal(t, 2*time.Minute, cfg.UnavailableInterval)
	assert.Equal(t, time.Duration(0), cfg.WatchdogInterval)
	assert.Equal(t, bluetooth.DefaultMaxHistory, cfg.MaxHistory)
	assert.Equal(t, log.LevelDebug, cfg.Level())
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":   "adapter: [",
		"mode":     "mode: sideways",
		"timeout":  "start_timeout: -1s",
		"history":  "max_history: 0",
		"level":    "log_level: loud",
		"watchdog": "watchdog_interval: 1m\nwatchdog_timeout: 0s",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := bluetooth.LoadConfig(writeFile(t, "bluetooth.yaml", data))
			assert.ErrorIs(t, err, bluetooth.ErrInvalidConfig)
		})
	}
}

func TestConfigOptions(t *testing.T) {
	specs := writeFile(t, "integrations.yaml", `
integrations:
  - domain: beacon
    manufacturer_id: 76
`)
	cfg := bluetooth.DefaultConfig()
	cfg.Integrations = specs
	cfg.WatchdogInterval = 0
	opts, err := cfg.Options()
	require.NoError(t, err)

	var f flowRecorder
	p := bletest.NewPlatform()
	c, err := bluetooth.New(p, append(opts, bluetooth.OptFlowStarter(&f))...)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Start(context.Background(), "", ""))

	p.Inject(bletest.NewEvent(addr1, bletest.WithManufacturerData(76, []byte{1})))
	assert.Equal(t, []string{"beacon " + addr1}, f.get())

	cfg.Integrations = filepath.Join(t.TempDir(), "none.yaml")
	_, err = cfg.Options()
	assert.Error(t, err)
}
