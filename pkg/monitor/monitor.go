// Package monitor hosts the tick loop: it consumes raw samples from a PPG
// device, drives the estimator once per sample, and fans the per-tick result
// out to display buffers, callbacks and the beat indicator.
package monitor

import (
	"sync"
	"time"

	"github.com/itohio/gohrm/pkg/config"
	"github.com/itohio/gohrm/pkg/estimator"
	"github.com/itohio/gohrm/pkg/ppg"
)

// BeatSink is the beat-indicator actuator collaborator (LED, buzzer). It is
// driven on interval acceptance, independent of the rate pipeline's output.
type BeatSink interface {
	Set(on bool)
}

// Monitor owns one estimator and a time-windowed FIFO of its results.
// Internally the FIFO is a slice trimmed by timestamp; externally it appears
// as an ordered slice, oldest first, for oscillogram drawing.
type Monitor struct {
	est    *estimator.Estimator
	jitter *estimator.Jitter // nil unless explicitly enabled
	sink   BeatSink

	results        []estimator.Result
	windowDuration time.Duration
	mu             sync.RWMutex

	callbacks []func(estimator.Result)
	cbMu      sync.RWMutex

	// Set when the input channel closes; prevents further callbacks.
	shutdown bool
}

// New creates a Monitor from configuration. The jitter stage is constructed
// only when the config explicitly enables it.
func New(cfg *config.Config) *Monitor {
	m := &Monitor{
		est:            estimator.New(cfg.Pipeline),
		results:        make([]estimator.Result, 0),
		windowDuration: cfg.Output.Window,
	}
	if m.windowDuration <= 0 {
		// A hand-built config can skip ensureDefaults; an unbounded result
		// buffer is never acceptable.
		m.windowDuration = config.Default().Output.Window
	}
	if cfg.Jitter.Enabled {
		m.jitter = estimator.NewJitter(cfg.Jitter.Amplitude, cfg.Jitter.Period)
	}
	return m
}

// SetBeatSink attaches the beat-indicator actuator. Pass nil to detach.
func (m *Monitor) SetBeatSink(sink BeatSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// OnUpdate registers a callback invoked with every tick's result. Callbacks
// run on the processing goroutine and should return quickly.
func (m *Monitor) OnUpdate(callback func(estimator.Result)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ProcessSamples processes samples from the input channel until it closes,
// then sets the shutdown flag so no further callbacks fire.
func (m *Monitor) ProcessSamples(input <-chan ppg.RawSample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processSample runs one estimator tick and distributes the result.
func (m *Monitor) processSample(s ppg.RawSample) {
	res := m.est.Tick(s.Reading, s.Timestamp)
	if m.jitter != nil {
		res = m.jitter.Apply(res)
	}

	m.mu.Lock()
	m.results = append(m.results, res)

	// Trim by timestamp, not count: the window is a duration.
	cutoff := s.Timestamp.Add(-m.windowDuration)
	cutoffIndex := 0
	for i, r := range m.results {
		if r.Timestamp.After(cutoff) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex > 0 {
		m.results = m.results[cutoffIndex:]
	}

	sink := m.sink
	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if sink != nil {
		sink.Set(res.Beat)
	}
	if shouldNotify {
		m.notifyCallbacks(res)
	}
}

// Results returns a copy of the windowed result buffer, oldest first.
func (m *Monitor) Results() []estimator.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]estimator.Result, len(m.results))
	copy(out, m.results)
	return out
}

// Latest returns the most recent result, if any tick has run.
func (m *Monitor) Latest() (estimator.Result, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.results) == 0 {
		return estimator.Result{}, false
	}
	return m.results[len(m.results)-1], true
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent
// again. Call before starting a new measurement chain.
func (m *Monitor) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

func (m *Monitor) notifyCallbacks(res estimator.Result) {
	m.cbMu.RLock()
	callbacks := make([]func(estimator.Result), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(res)
		}
	}
}
