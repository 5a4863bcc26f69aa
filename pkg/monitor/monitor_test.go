package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gohrm/pkg/config"
	"github.com/itohio/gohrm/pkg/estimator"
	"github.com/itohio/gohrm/pkg/ppg"
)

// The serial device is the production beat indicator.
var _ BeatSink = (*ppg.Serial)(nil)

type fakeSink struct {
	mu    sync.Mutex
	calls []bool
}

func (f *fakeSink) Set(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, on)
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNew(t *testing.T) {
	m := New(config.Default())

	assert.NotNil(t, m)
	assert.Empty(t, m.Results())
	_, ok := m.Latest()
	assert.False(t, ok)
}

func TestMonitor_ProcessSampleBasic(t *testing.T) {
	m := New(config.Default())

	now := time.Unix(0, 0)
	m.processSample(ppg.RawSample{Timestamp: now, Reading: 400})

	results := m.Results()
	require.Len(t, results, 1)
	assert.Equal(t, now, results[0].Timestamp)

	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, results[0], latest)
}

func TestMonitor_WindowTrim(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Window = time.Second
	m := New(cfg)

	now := time.Unix(0, 0)
	for i := 0; i < 150; i++ { // 3s at 20ms
		m.processSample(ppg.RawSample{Timestamp: now, Reading: 400})
		now = now.Add(20 * time.Millisecond)
	}

	results := m.Results()
	require.NotEmpty(t, results)
	// Everything retained lies within the window of the newest sample.
	newest := results[len(results)-1].Timestamp
	for _, r := range results {
		assert.True(t, r.Timestamp.After(newest.Add(-time.Second)))
	}
	assert.LessOrEqual(t, len(results), 51)
}

func TestMonitor_ZeroWindowStaysBounded(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Window = 0 // bypassing ensureDefaults must not unbound the buffer
	m := New(cfg)

	now := time.Unix(0, 0)
	for i := 0; i < 600; i++ { // 12s at 20ms, past the default window
		m.processSample(ppg.RawSample{Timestamp: now, Reading: 400})
		now = now.Add(20 * time.Millisecond)
	}

	assert.LessOrEqual(t, len(m.Results()), 501)
}

func TestMonitor_BeatSinkDriven(t *testing.T) {
	m := New(config.Default())
	sink := &fakeSink{}
	m.SetBeatSink(sink)

	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		m.processSample(ppg.RawSample{Timestamp: now, Reading: 400})
		now = now.Add(20 * time.Millisecond)
	}

	// The sink is driven every tick; a flat signal never asserts it.
	assert.Equal(t, 5, sink.count())
	for _, on := range sink.calls {
		assert.False(t, on)
	}
}

func TestMonitor_CallbacksReceiveResults(t *testing.T) {
	m := New(config.Default())

	var mu sync.Mutex
	received := make([]estimator.Result, 0)
	m.OnUpdate(func(res estimator.Result) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, res)
	})

	input := make(chan ppg.RawSample, 10)
	done := make(chan struct{})
	go func() {
		m.ProcessSamples(input)
		close(done)
	}()

	now := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		input <- ppg.RawSample{Timestamp: now, Reading: 400}
		now = now.Add(20 * time.Millisecond)
	}
	close(input)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, received, 3)
}

// TestMonitor_GracefulShutdown_NoCallbacksAfterClose tests that the monitor
// stops sending callbacks after the input channel is closed.
func TestMonitor_GracefulShutdown_NoCallbacksAfterClose(t *testing.T) {
	m := New(config.Default())

	var mu sync.Mutex
	callbackCount := 0
	m.OnUpdate(func(res estimator.Result) {
		mu.Lock()
		defer mu.Unlock()
		callbackCount++
	})

	input := make(chan ppg.RawSample, 10)
	done := make(chan struct{})
	go func() {
		m.ProcessSamples(input)
		close(done)
	}()

	now := time.Unix(0, 0)
	input <- ppg.RawSample{Timestamp: now, Reading: 400}
	close(input)
	<-done

	mu.Lock()
	countAfterClose := callbackCount
	mu.Unlock()

	// Direct processing after shutdown must not notify.
	m.processSample(ppg.RawSample{Timestamp: now.Add(time.Second), Reading: 400})

	mu.Lock()
	assert.Equal(t, countAfterClose, callbackCount)
	mu.Unlock()

	// ResetShutdown re-arms callbacks for a new chain.
	m.ResetShutdown()
	m.processSample(ppg.RawSample{Timestamp: now.Add(2 * time.Second), Reading: 400})

	mu.Lock()
	assert.Equal(t, countAfterClose+1, callbackCount)
	mu.Unlock()
}

func TestDownsample(t *testing.T) {
	results := make([]estimator.Result, 100)
	for i := range results {
		results[i] = estimator.Result{BPM: i}
	}

	t.Run("fewer than max copies all", func(t *testing.T) {
		out := Downsample(nil, results[:5], 10)
		assert.Len(t, out, 5)
		assert.Equal(t, results[:5], out)
	})

	t.Run("decimates to max points", func(t *testing.T) {
		out := Downsample(nil, results, 10)
		assert.Len(t, out, 10)
		assert.Equal(t, 0, out[0].BPM)
		assert.Equal(t, 90, out[9].BPM)
	})

	t.Run("reuses destination capacity", func(t *testing.T) {
		dst := make([]estimator.Result, 0, 10)
		out := Downsample(dst, results, 10)
		assert.Len(t, out, 10)
		assert.Equal(t, 10, cap(out))
	})
}
