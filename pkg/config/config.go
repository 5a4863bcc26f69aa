package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Jitter    JitterConfig    `yaml:"jitter"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Output    OutputConfig    `yaml:"output"`
	Mock      MockConfig      `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
}

// PipelineConfig contains every tunable of the estimation pipeline. The
// defaults reproduce the firmware constants; exposing them here lets tests
// and deployments retune without a rebuild.
type PipelineConfig struct {
	SamplePeriod time.Duration `yaml:"sample_period"` // tick period (default 20ms, 50 Hz)

	DCAlpha       float64 `yaml:"dc_alpha"`        // baseline tracker coefficient
	AutoGainAlpha float64 `yaml:"auto_gain_alpha"` // amplitude tracker coefficient
	TargetP2P     float64 `yaml:"target_p2p"`      // desired peak-to-peak after gain
	MaxGain       float64 `yaml:"max_gain"`        // gain clamp upper bound
	SmoothWindow  int     `yaml:"smooth_window"`   // smoothing ring size

	RMSAlpha       float64 `yaml:"rms_alpha"`       // running magnitude coefficient
	ThresholdFloor float64 `yaml:"threshold_floor"` // minimum peak threshold
	Prominence     float64 `yaml:"prominence"`      // threshold = rms * prominence

	MinBeatInterval time.Duration `yaml:"min_beat_interval"` // refractory period
	MinValidBPM     float64       `yaml:"min_valid_bpm"`
	MaxValidBPM     float64       `yaml:"max_valid_bpm"`

	IntervalHistory int `yaml:"interval_history"` // accepted interval ring size
	MedianWindow    int `yaml:"median_window"`    // candidate BPM median ring size
	AverageWindow   int `yaml:"average_window"`   // candidate BPM average ring size

	FallbackTimeout time.Duration `yaml:"fallback_timeout"` // hold last good BPM this long
	PresenceFloor   uint16        `yaml:"presence_floor"`   // raw counts below this = no finger
	LowConfMargin   float64       `yaml:"low_conf_margin"`  // peak/threshold margin for LOW_CONF
}

// JitterConfig controls the cosmetic HRV wobble stage. It fabricates
// variability on top of the measured rate and is therefore off by default;
// enable it only for demo displays fed by a simulated sensor.
type JitterConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Amplitude float64       `yaml:"amplitude"` // max wobble in BPM
	Period    time.Duration `yaml:"period"`    // wobble cycle length
}

// TelemetryConfig contains MQTT publishing configuration.
type TelemetryConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Broker   string        `yaml:"broker"`
	Port     int           `yaml:"port"`
	Topic    string        `yaml:"topic"`
	ClientID string        `yaml:"client_id"`
	Interval time.Duration `yaml:"interval"` // minimum time between publishes
}

// OutputConfig contains local record output configuration.
type OutputConfig struct {
	CSVPath string        `yaml:"csv_path"` // empty = no CSV logging
	Window  time.Duration `yaml:"window"`   // result history kept for display consumers
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	BPM          float64       `yaml:"bpm"`           // simulated heart rate
	Amplitude    float64       `yaml:"amplitude"`     // pulse amplitude (ADC counts)
	Baseline     float64       `yaml:"baseline"`      // resting level (ADC counts)
	NoiseLevel   float64       `yaml:"noise_level"`   // noise amplitude (ADC counts)
	SampleRate   time.Duration `yaml:"sample_rate"`   // sample period
	FingerOff    time.Duration `yaml:"finger_off"`    // periodic detached-sensor window (0 = never)
	FingerPeriod time.Duration `yaml:"finger_period"` // time between detachments
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
		},
		Pipeline: PipelineConfig{
			SamplePeriod:    20 * time.Millisecond,
			DCAlpha:         0.92,
			AutoGainAlpha:   0.02,
			TargetP2P:       100,
			MaxGain:         8,
			SmoothWindow:    5,
			RMSAlpha:        0.92,
			ThresholdFloor:  5,
			Prominence:      1.2,
			MinBeatInterval: 250 * time.Millisecond,
			MinValidBPM:     35,
			MaxValidBPM:     200,
			IntervalHistory: 16,
			MedianWindow:    5,
			AverageWindow:   8,
			FallbackTimeout: 5 * time.Second,
			PresenceFloor:   30,
			LowConfMargin:   1.25,
		},
		Jitter: JitterConfig{
			Enabled:   false,
			Amplitude: 2,
			Period:    7 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Broker:   "localhost",
			Port:     1883,
			Topic:    "gohrm/reading",
			ClientID: "gohrm",
			Interval: time.Second,
		},
		Output: OutputConfig{
			CSVPath: "",
			Window:  10 * time.Second,
		},
		Mock: MockConfig{
			BPM:        72,
			Amplitude:  180,
			Baseline:   420,
			NoiseLevel: 4,
			SampleRate: 20 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}

	p := &c.Pipeline
	dp := def.Pipeline
	if p.SamplePeriod == 0 {
		p.SamplePeriod = dp.SamplePeriod
	}
	if p.DCAlpha == 0 {
		p.DCAlpha = dp.DCAlpha
	}
	if p.AutoGainAlpha == 0 {
		p.AutoGainAlpha = dp.AutoGainAlpha
	}
	if p.TargetP2P == 0 {
		p.TargetP2P = dp.TargetP2P
	}
	if p.MaxGain == 0 {
		p.MaxGain = dp.MaxGain
	}
	if p.SmoothWindow == 0 {
		p.SmoothWindow = dp.SmoothWindow
	}
	if p.RMSAlpha == 0 {
		p.RMSAlpha = dp.RMSAlpha
	}
	if p.ThresholdFloor == 0 {
		p.ThresholdFloor = dp.ThresholdFloor
	}
	if p.Prominence == 0 {
		p.Prominence = dp.Prominence
	}
	if p.MinBeatInterval == 0 {
		p.MinBeatInterval = dp.MinBeatInterval
	}
	if p.MinValidBPM == 0 {
		p.MinValidBPM = dp.MinValidBPM
	}
	if p.MaxValidBPM == 0 {
		p.MaxValidBPM = dp.MaxValidBPM
	}
	if p.IntervalHistory == 0 {
		p.IntervalHistory = dp.IntervalHistory
	}
	if p.MedianWindow == 0 {
		p.MedianWindow = dp.MedianWindow
	}
	if p.AverageWindow == 0 {
		p.AverageWindow = dp.AverageWindow
	}
	if p.FallbackTimeout == 0 {
		p.FallbackTimeout = dp.FallbackTimeout
	}
	if p.PresenceFloor == 0 {
		p.PresenceFloor = dp.PresenceFloor
	}
	if p.LowConfMargin == 0 {
		p.LowConfMargin = dp.LowConfMargin
	}

	if c.Jitter.Amplitude == 0 {
		c.Jitter.Amplitude = def.Jitter.Amplitude
	}
	if c.Jitter.Period == 0 {
		c.Jitter.Period = def.Jitter.Period
	}

	if c.Telemetry.Broker == "" {
		c.Telemetry.Broker = def.Telemetry.Broker
	}
	if c.Telemetry.Port == 0 {
		c.Telemetry.Port = def.Telemetry.Port
	}
	if c.Telemetry.Topic == "" {
		c.Telemetry.Topic = def.Telemetry.Topic
	}
	if c.Telemetry.ClientID == "" {
		c.Telemetry.ClientID = def.Telemetry.ClientID
	}
	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = def.Telemetry.Interval
	}

	if c.Output.Window == 0 {
		c.Output.Window = def.Output.Window
	}

	if c.Mock.BPM == 0 {
		c.Mock.BPM = def.Mock.BPM
	}
	if c.Mock.Amplitude == 0 {
		c.Mock.Amplitude = def.Mock.Amplitude
	}
	if c.Mock.Baseline == 0 {
		c.Mock.Baseline = def.Mock.Baseline
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
}
