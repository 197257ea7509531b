package bluetooth

import (
	"os"
	"strings"
	"time"

	"github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the coordinator options.
type Config struct {
	Adapter             string        `yaml:"adapter"`
	Mode                ScanningMode  `yaml:"mode"`
	Source              string        `yaml:"source"`
	StartTimeout        time.Duration `yaml:"start_timeout"`
	UnavailableInterval time.Duration `yaml:"unavailable_interval"`
	WatchdogInterval    time.Duration `yaml:"watchdog_interval"` // 0 disables the watchdog
	WatchdogTimeout     time.Duration `yaml:"watchdog_timeout"`
	Integrations        string        `yaml:"integrations"` // empty uses the built in set
	MaxHistory          int           `yaml:"max_history"`
	LogLevel            string        `yaml:"log_level"`
	MetricsAddr         string        `yaml:"metrics_addr"`
}

// DefaultConfig returns the configuration New uses without options.
func DefaultConfig() *Config {
	return &Config{
		Mode:                ScanActive,
		Source:              SourceLocal,
		StartTimeout:        DefaultStartTimeout,
		UnavailableInterval: DefaultUnavailableInterval,
		WatchdogInterval:    DefaultWatchdogInterval,
		WatchdogTimeout:     DefaultWatchdogTimeout,
		MaxHistory:          DefaultMaxHistory,
		LogLevel:            "info",
	}
}

// LoadConfig reads a YAML file over the defaults. A missing file yields
// the defaults.
func LoadConfig(name string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "parse %s: %v", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var logLevels = map[string]int{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"off":   log.LevelOff,
}

// Validate ...
func (c *Config) Validate() error {
	switch c.Mode {
	case ScanActive, ScanPassive:
	default:
		return errors.Wrapf(ErrInvalidConfig, "mode %q", c.Mode)
	}
	if c.StartTimeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "start_timeout %s", c.StartTimeout)
	}
	if c.UnavailableInterval <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "unavailable_interval %s", c.UnavailableInterval)
	}
	if c.WatchdogInterval < 0 || (c.WatchdogInterval > 0 && c.WatchdogTimeout <= 0) {
		return errors.Wrapf(ErrInvalidConfig, "watchdog %s/%s", c.WatchdogInterval, c.WatchdogTimeout)
	}
	if c.MaxHistory <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_history %d", c.MaxHistory)
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return errors.Wrapf(ErrInvalidConfig, "log_level %q", c.LogLevel)
	}
	return nil
}

// Level returns the logxi level of LogLevel.
func (c *Config) Level() int {
	if l, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return log.LevelInfo
}

// Options converts the configuration into coordinator options, loading
// the integrations file if one is set.
func (c *Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	opts := []Option{
		OptAdapter(c.Adapter),
		OptScanningMode(c.Mode),
		OptSource(c.Source),
		OptStartTimeout(c.StartTimeout),
		OptUnavailableInterval(c.UnavailableInterval),
		OptWatchdog(c.WatchdogInterval, c.WatchdogTimeout),
		OptMaxHistory(c.MaxHistory),
	}
	if c.Integrations != "" {
		specs, err := LoadIntegrationSpecsFile(c.Integrations)
		if err != nil {
			return nil, err
		}
		opts = append(opts, OptIntegrations(specs))
	}
	return opts, nil
}

// SetLogLevel sets the level of the package logger.
func SetLogLevel(level int) {
	logger.SetLevel(level)
}
