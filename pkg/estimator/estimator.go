// Package estimator turns one raw PPG sample per tick into a stable,
// confidence-qualified heart-rate estimate. All state lives in fixed-size
// buffers owned by a single Estimator instance; nothing allocates after
// construction and nothing blocks.
package estimator

import (
	"time"

	"github.com/itohio/gohrm/pkg/config"
)

// marginAlpha smooths the peak-over-threshold ratio used for the LOW_CONF
// decision, so one weak beat does not flip the label.
const marginAlpha = 0.3

// Result is the per-tick output tuple.
type Result struct {
	Timestamp  time.Time
	Filtered   float32 // conditioned sample, zero when the sensor is absent
	BPM        int     // rounded estimate, zero when none is available
	Confidence int     // percent, fixed per status
	Status     Status
	Beat       bool // an interval was accepted on this tick
}

// Estimator owns the full conditioning, detection, validation and
// aggregation state. It is not safe for concurrent use: one goroutine feeds
// it one sample per tick, which is the whole concurrency model.
type Estimator struct {
	presenceFloor uint16

	cond   conditioner
	thresh thresholdTracker
	det    beatDetector
	hist   intervalHistory
	agg    aggregator
	state  stateMachine

	lastValidBeat time.Time
	lastStatus    Status
	margin        float32 // smoothed peak/threshold ratio at accepted beats
}

// New creates an Estimator from pipeline configuration. Timestamps are
// supplied by the caller on every tick, so tests can drive the estimator with
// synthetic clocks and no sleeps.
func New(cfg config.PipelineConfig) *Estimator {
	// The slowest plausible beat bounds how long an estimate stays fresh.
	holdWindow := time.Duration(60000 / cfg.MinValidBPM * float64(time.Millisecond))

	return &Estimator{
		presenceFloor: cfg.PresenceFloor,
		cond:          newConditioner(cfg.DCAlpha, cfg.AutoGainAlpha, cfg.TargetP2P, cfg.MaxGain, cfg.SmoothWindow),
		thresh:        newThresholdTracker(cfg.RMSAlpha, cfg.ThresholdFloor, cfg.Prominence),
		det:           newBeatDetector(cfg.MinBeatInterval),
		hist:          newIntervalHistory(cfg.MinValidBPM, cfg.MaxValidBPM, cfg.IntervalHistory),
		agg:           newAggregator(cfg.MedianWindow, cfg.AverageWindow),
		state:         newStateMachine(cfg.FallbackTimeout, holdWindow, cfg.LowConfMargin),
	}
}

// Tick processes one raw sample. Every call yields a defined Result; all
// anomalies are absorbed into the status, never raised as errors.
func (e *Estimator) Tick(raw uint16, now time.Time) Result {
	if raw < e.presenceFloor {
		// Sensor absent: emit the zeroed tuple and leave all filter and
		// beat-cadence state untouched so re-acquisition is fast.
		return Result{Timestamp: now, Status: StatusNoSensor}
	}

	filtered := e.cond.condition(raw)
	threshold := e.thresh.update(filtered)

	var (
		aggregated float32
		hasAgg     bool
		beat       bool
	)

	// An anchor beat only starts the detector clock; lastValidBeat moves
	// on accepted intervals alone.
	if ev, ok := e.det.detect(filtered, threshold, now); ok && !ev.anchor {
		if e.hist.accept(ev.interval) {
			e.det.advance(now)
			e.lastValidBeat = now
			beat = true

			ratio := ev.peak / threshold
			if e.margin == 0 {
				e.margin = ratio
			} else {
				e.margin += marginAlpha * (ratio - e.margin)
			}

			if cand, valid := e.hist.candidate(); valid {
				aggregated = e.agg.aggregate(cand)
				hasAgg = true
			}
		}
		// A rejected interval is dropped silently and the beat clock stays
		// on the previous accepted beat.
	}

	status, bpm, confidence := e.state.evaluate(now, aggregated, hasAgg, e.lastValidBeat, e.margin)

	if status == StatusNoSensor && e.lastStatus != StatusNoSensor {
		// The beat stream is gone for good as far as the fallback window is
		// concerned. Stale cadence must not seed the next acquisition, so
		// the detector re-anchors and the interval and rate windows restart
		// empty.
		e.det.reset()
		e.hist.reset()
		e.agg.reset()
		e.margin = 0
	}
	e.lastStatus = status

	res := Result{
		Timestamp:  now,
		Filtered:   filtered,
		BPM:        int(bpm + 0.5),
		Confidence: confidence,
		Status:     status,
		Beat:       beat,
	}
	if status == StatusNoSensor {
		res.Filtered = 0
		res.BPM = 0
	}
	return res
}
