package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/kettlectl/internal/config"
)

// resetArgs strips go-test flags so Load only sees our own.
func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"kettlectl"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)
	t.Setenv("KETTLECTL_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 1000, cfg.SampleInterval, "Expected default SampleInterval 1000")
	assert.Equal(t, 50, cfg.PollInterval, "Expected default PollInterval 50")
	assert.Equal(t, 200, cfg.PulseDuration, "Expected default PulseDuration 200")
	assert.Equal(t, 5000, cfg.TransitionTimeout, "Expected default TransitionTimeout 5000")
	assert.Equal(t, 50, cfg.TempDelta, "Expected default TempDelta 50")
	assert.Equal(t, 100, cfg.SetpointDelta, "Expected default SetpointDelta 100")
	assert.Equal(t, 8, cfg.FilterCoeff, "Expected default FilterCoeff 8")
	assert.Equal(t, "tcp://localhost:1883", cfg.Broker)
	assert.False(t, cfg.Telemetry, "Expected Telemetry disabled by default")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
}

func TestLoadConfigFile(t *testing.T) {
	resetArgs(t)

	tempDir := t.TempDir()
	configContent := []byte(`
sample_interval = 250
poll_interval = 10
pulse_duration = 100
transition_timeout = 2000
temp_delta = 25
broker = "tcp://192.168.1.10:1883"
database = "/tmp/kettlectl-test.db"
telemetry = true
log_level = "debug"
`)
	configPath := filepath.Join(tempDir, "kettlectl.toml")
	require.NoError(t, os.WriteFile(configPath, configContent, 0o600))

	t.Setenv("KETTLECTL_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.SampleInterval)
	assert.Equal(t, 10, cfg.PollInterval)
	assert.Equal(t, 100, cfg.PulseDuration)
	assert.Equal(t, 2000, cfg.TransitionTimeout)
	assert.Equal(t, 25, cfg.TempDelta)
	assert.Equal(t, "tcp://192.168.1.10:1883", cfg.Broker)
	assert.Equal(t, "/tmp/kettlectl-test.db", cfg.Database)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFlagOverridesFile(t *testing.T) {
	resetArgs(t, "--broker", "tcp://10.0.0.2:1883", "--log-level", "debug")

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "kettlectl.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`broker = "tcp://filehost:1883"`), 0o600))
	t.Setenv("KETTLECTL_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "tcp://10.0.0.2:1883", cfg.Broker, "Expected flag to override config file")
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestInvalidLogLevel(t *testing.T) {
	resetArgs(t)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "kettlectl.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`log_level = "invalid"`), 0o600))
	t.Setenv("KETTLECTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestValidateIntervals(t *testing.T) {
	resetArgs(t)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "kettlectl.toml")
	// Watchdog shorter than the pulse can never observe a transition
	require.NoError(t, os.WriteFile(configPath, []byte(`
pulse_duration = 500
transition_timeout = 400
`), 0o600))
	t.Setenv("KETTLECTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transition_timeout")
}
