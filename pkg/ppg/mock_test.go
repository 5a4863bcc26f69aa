package ppg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gohrm/pkg/config"
)

func TestWaveform_StaysInRange(t *testing.T) {
	for i := 0; i < 5000; i++ {
		elapsed := time.Duration(i) * 20 * time.Millisecond
		v := Waveform(elapsed, 72, 420, 180, 4)
		assert.GreaterOrEqual(t, v, 0.0, "at %v", elapsed)
		assert.LessOrEqual(t, v, float64(MaxReading), "at %v", elapsed)
	}
}

func TestWaveform_Periodicity(t *testing.T) {
	// At 75 BPM the waveform repeats every 800ms (up to the slow wander
	// and noise terms, hence the loose tolerance on the dominant peak).
	period := 800 * time.Millisecond

	v1 := Waveform(120*time.Millisecond, 75, 420, 180, 0)
	v2 := Waveform(120*time.Millisecond+period, 75, 420, 180, 0)
	assert.InDelta(t, v1, v2, 15)

	// The systolic peak clearly dominates the resting level.
	peak := Waveform(120*time.Millisecond, 75, 420, 180, 0)
	rest := Waveform(700*time.Millisecond, 75, 420, 180, 0)
	assert.Greater(t, peak, rest+100)
}

func TestMock_ProducesSamples(t *testing.T) {
	cfg := &config.MockConfig{
		BPM:        72,
		Amplitude:  180,
		Baseline:   420,
		NoiseLevel: 4,
		SampleRate: time.Millisecond,
	}
	m := NewMock(cfg)

	require.NoError(t, m.Connect())
	assert.True(t, m.IsConnected())

	received := 0
	timeout := time.After(500 * time.Millisecond)
	for received < 10 {
		select {
		case s := <-m.Samples():
			assert.LessOrEqual(t, s.Reading, uint16(MaxReading))
			assert.False(t, s.Timestamp.IsZero())
			received++
		case <-timeout:
			t.Fatalf("timed out after %d samples", received)
		}
	}

	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())
}

func TestMock_DoubleConnect(t *testing.T) {
	m := NewMock(nil)

	require.NoError(t, m.Connect())
	assert.Error(t, m.Connect())
	require.NoError(t, m.Close())
}

// TestMock_GracefulShutdown_ChannelCloses tests that the samples channel is
// closed after Close so consumers drain and exit.
func TestMock_GracefulShutdown_ChannelCloses(t *testing.T) {
	m := NewMock(&config.MockConfig{
		BPM:        72,
		Amplitude:  180,
		Baseline:   420,
		SampleRate: time.Millisecond,
	})

	require.NoError(t, m.Connect())
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Close())

	// Drain: the channel must terminate rather than block forever.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-m.Samples():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("samples channel never closed")
		}
	}
}

func TestMock_FingerOffWindows(t *testing.T) {
	cfg := &config.MockConfig{
		BPM:          72,
		Amplitude:    180,
		Baseline:     420,
		SampleRate:   time.Millisecond,
		FingerOff:    time.Hour, // permanently detached
		FingerPeriod: 2 * time.Hour,
	}
	m := NewMock(cfg)

	require.NoError(t, m.Connect())
	defer m.Close()

	select {
	case s := <-m.Samples():
		// Detached-sensor output floats below any plausible presence floor.
		assert.Less(t, s.Reading, uint16(30))
	case <-time.After(500 * time.Millisecond):
		t.Fatal("no sample received")
	}
}
