package ppg

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/gohrm/pkg/config"
)

// Mock simulates a PPG sensor for testing and development. It generates a
// pulse waveform with a systolic peak, a dicrotic notch, slow baseline
// wander and deterministic noise, and can periodically simulate a detached
// finger.
type Mock struct {
	cfg *config.MockConfig

	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	startTime time.Time
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			BPM:        72,
			Amplitude:  180,
			Baseline:   420,
			NoiseLevel: 4,
			SampleRate: 20 * time.Millisecond,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		samples:   make(chan RawSample, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Connect starts the waveform generator.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()

	go m.generateSamples()

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.samples)

	return nil
}

// Samples returns the channel for reading samples.
func (m *Mock) Samples() <-chan RawSample {
	return m.samples
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateSamples emits one sample per tick of the configured rate.
func (m *Mock) generateSamples() {
	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			sample := m.generateSample(now)
			select {
			case m.samples <- sample:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// generateSample evaluates the waveform at the given instant.
func (m *Mock) generateSample(now time.Time) RawSample {
	elapsed := now.Sub(m.startTime)

	// Detached-finger windows: output floats near zero.
	if m.cfg.FingerOff > 0 && m.cfg.FingerPeriod > 0 {
		inPeriod := elapsed % m.cfg.FingerPeriod
		if inPeriod < m.cfg.FingerOff {
			return RawSample{Timestamp: now, Reading: 5}
		}
	}

	v := Waveform(elapsed, m.cfg.BPM, m.cfg.Baseline, m.cfg.Amplitude, m.cfg.NoiseLevel)

	if v < 0 {
		v = 0
	} else if v > MaxReading {
		v = MaxReading
	}

	return RawSample{
		Timestamp: now,
		Reading:   uint16(v),
	}
}

// Waveform evaluates a synthetic PPG value at the given offset from the
// waveform epoch. It is exported so tests can feed the estimator the exact
// same shape without a running device.
func Waveform(elapsed time.Duration, bpm, baseline, amplitude, noise float64) float64 {
	beatPeriod := 60.0 / bpm
	t := math.Mod(elapsed.Seconds(), beatPeriod) / beatPeriod // 0..1 in cycle

	// Systolic peak and the smaller dicrotic bump as gaussians.
	systolic := gauss(t, 0.15, 0.045)
	dicrotic := 0.35 * gauss(t, 0.45, 0.08)

	// Slow baseline wander (respiration-like).
	wander := 0.04 * math.Sin(2*math.Pi*0.25*elapsed.Seconds())

	// Deterministic noise, cheap and repeatable.
	n := noise * math.Sin(float64(elapsed.Nanoseconds())*0.0011) * math.Cos(float64(elapsed.Nanoseconds())*0.0007)

	return baseline + amplitude*(systolic+dicrotic+wander) + n
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
