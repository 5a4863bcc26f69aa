package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, 20*time.Millisecond, cfg.Pipeline.SamplePeriod)
	assert.Equal(t, 0.92, cfg.Pipeline.DCAlpha)
	assert.Equal(t, 0.02, cfg.Pipeline.AutoGainAlpha)
	assert.Equal(t, 5, cfg.Pipeline.SmoothWindow)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.MinBeatInterval)
	assert.Equal(t, 35.0, cfg.Pipeline.MinValidBPM)
	assert.Equal(t, 200.0, cfg.Pipeline.MaxValidBPM)
	assert.Equal(t, 16, cfg.Pipeline.IntervalHistory)
	assert.Equal(t, 5, cfg.Pipeline.MedianWindow)
	assert.Equal(t, 8, cfg.Pipeline.AverageWindow)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.FallbackTimeout)
	assert.Equal(t, uint16(30), cfg.Pipeline.PresenceFloor)

	// The wobble stage must never be on unless asked for.
	assert.False(t, cfg.Jitter.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	// Durations marshal as nanosecond integers.
	content := `
serial:
  port: /dev/ttyACM0
pipeline:
  sample_period: 10000000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 10*time.Millisecond, cfg.Pipeline.SamplePeriod)
	// Missing fields fall back to defaults.
	assert.Equal(t, 0.92, cfg.Pipeline.DCAlpha)
	assert.Equal(t, 16, cfg.Pipeline.IntervalHistory)
	assert.Equal(t, 72.0, cfg.Mock.BPM)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB7"
	cfg.Pipeline.MaxValidBPM = 180
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Broker = "broker.local"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
