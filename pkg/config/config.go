// Package config loads the static runtime configuration for the touch
// encoder control library and its tectl front end: default timeouts, CAN
// bus naming, and logging behavior.
//
// There is no dynamic, persisted configuration here — spec.md's Non-goals
// state the library does not persist state across invocations. Config is
// read once at process start and handed to the discovery/session layers as
// plain values.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (TECTL_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the static configuration for a tectl process or an embedding
// application driving this library directly.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Timeouts controls the default per-operation deadlines.
	Timeouts TimeoutConfig `mapstructure:"timeouts" yaml:"timeouts"`

	// CAN lists the default CAN bus interface names scanned during discovery
	// when the caller doesn't supply an explicit list.
	CAN CANConfig `mapstructure:"can" yaml:"can"`

	// Metrics controls optional Prometheus metrics recording.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior. Field shape matches the
// teacher's own LoggingConfig one-for-one.
type LoggingConfig struct {
	// Level is the minimum log level to output: DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

// TimeoutConfig holds the default deadlines referenced throughout spec.md §7.
type TimeoutConfig struct {
	// Default is the per-operation timeout (spec.md: "per-operation default 1s").
	Default time.Duration `mapstructure:"default" yaml:"default"`

	// Restart is the wait-for-reboot deadline (spec.md RESTART_TIMEOUT=20s).
	Restart time.Duration `mapstructure:"restart" yaml:"restart"`

	// Update is the whole-call update deadline (spec.md UPDATE_TIMEOUT=720s).
	Update time.Duration `mapstructure:"update" yaml:"update"`

	// RestartAckCAN / RestartAckHID are the transport-specific restart-ack
	// waits (spec.md §4.5: 1s CAN / 5s HID).
	RestartAckCAN time.Duration `mapstructure:"restart_ack_can" yaml:"restart_ack_can"`
	RestartAckHID time.Duration `mapstructure:"restart_ack_hid" yaml:"restart_ack_hid"`

	// UpdateConfirmation is the UPDATE_CONFIRMATION phase's task deadline.
	UpdateConfirmation time.Duration `mapstructure:"update_confirmation" yaml:"update_confirmation"`

	// UpdateUploadEOF and UpdateComponent are the 60s sub-deadlines from
	// spec.md §4.6 (upload EOF → UPDATING, and each COMPONENT tick).
	UpdateUploadEOF time.Duration `mapstructure:"update_upload_eof" yaml:"update_upload_eof"`
	UpdateComponent time.Duration `mapstructure:"update_component" yaml:"update_component"`

	// ScanForDevices is the default CAN bus scan window (spec.md: 2s).
	ScanForDevices time.Duration `mapstructure:"scan_for_devices" yaml:"scan_for_devices"`

	// SendToCAN is the default multi-packet send completion wait (spec.md: 10s).
	SendToCAN time.Duration `mapstructure:"send_to_can" yaml:"send_to_can"`

	// HotplugPoll is the HID hotplug polling interval when no libusb
	// hotplug support is available (spec.md §4.5: 500ms).
	HotplugPoll time.Duration `mapstructure:"hotplug_poll" yaml:"hotplug_poll"`
}

// CANConfig controls the default bus interface names scanned by discovery and
// the choice of CAN backend (spec.md §4.3).
type CANConfig struct {
	// BusNames lists the CAN interfaces scanned by default, e.g. "can0", "can1".
	BusNames []string `mapstructure:"bus_names" yaml:"bus_names"`

	// Universal selects the universal (brutella/can-backed) CA backend
	// instead of the native Linux J1939 socket backend.
	Universal bool `mapstructure:"universal" yaml:"universal"`
}

// MetricsConfig configures optional Prometheus metrics. No tectl command
// starts the metrics HTTP server (metrics.Serve), so Port is not read by tectl.
type MetricsConfig struct {
	// Enabled controls whether the ls and update commands record metrics.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint.
	Port int `mapstructure:"port" yaml:"port"`
}

// Load reads configuration from the given file path (if non-empty),
// environment variables prefixed TECTL_, and built-in defaults, in that
// precedence order (lowest to highest: defaults, file, env — CLI flags are
// layered on top by the caller, which overrides fields of the returned Config).
func Load(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("TECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
