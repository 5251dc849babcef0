package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 1*time.Second, cfg.Timeouts.Default)
	assert.Equal(t, 20*time.Second, cfg.Timeouts.Restart)
	assert.Equal(t, 720*time.Second, cfg.Timeouts.Update)
	assert.Equal(t, []string{"can0"}, cfg.CAN.BusNames)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tectl.yaml")
	contents := `
logging:
  level: DEBUG
timeouts:
  restart: 30s
can:
  bus_names:
    - can0
    - can1
  universal: true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Restart)
	assert.Equal(t, []string{"can0", "can1"}, cfg.CAN.BusNames)
	assert.True(t, cfg.CAN.Universal)
	// Unset values keep their defaults.
	assert.Equal(t, 1*time.Second, cfg.Timeouts.Default)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/tectl.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TECTL_LOGGING_LEVEL", "WARN")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Logging.Level)
}
