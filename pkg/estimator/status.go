package estimator

import "time"

// Status classifies the tick output.
type Status int

const (
	// StatusOK: a plausible aggregate was produced this tick, or within the
	// last plausible beat interval.
	StatusOK Status = iota
	// StatusFallback: the beat stream has stalled, holding the last good
	// value.
	StatusFallback
	// StatusNoSensor: sensor absent or no plausible beat for too long.
	StatusNoSensor
	// StatusLowConf: a fresh aggregate, but the signal barely clears the
	// detection threshold.
	StatusLowConf
)

// String returns the wire label, which follows the output record convention
// rather than the internal state name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFallback:
		return "FALLBACK"
	case StatusLowConf:
		return "LOW_CONF"
	default:
		return "NO_FINGER"
	}
}

// Confidence is a fixed quality label per status, not a computed statistic.
const (
	okConfidence       = 85
	lowConfConfidence  = 70
	fallbackConfidence = 60
)

// stateMachine decides the emitted status and rate every tick, holding the
// last good estimate across transient dropout.
type stateMachine struct {
	fallbackTimeout time.Duration
	holdWindow      time.Duration // longest plausible beat interval
	lowConfMargin   float32

	lastGoodBPM    float32
	lastGoodStatus Status
	hasGood        bool
}

func newStateMachine(fallbackTimeout, holdWindow time.Duration, lowConfMargin float64) stateMachine {
	return stateMachine{
		fallbackTimeout: fallbackTimeout,
		holdWindow:      holdWindow,
		lowConfMargin:   float32(lowConfMargin),
	}
}

// evaluate applies the transition policy for one tick. aggregated and hasAgg
// describe this tick's aggregator output; lastValidBeat is the time of the
// most recent accepted beat; margin is the smoothed peak-over-threshold
// ratio. The presence-floor case is handled upstream, before the pipeline
// runs at all.
//
// Between beats the estimate is not stale: as long as one plausible beat
// interval has not yet elapsed, the last fresh status and value are held.
// FALLBACK begins only once a beat is overdue.
func (m *stateMachine) evaluate(now time.Time, aggregated float32, hasAgg bool, lastValidBeat time.Time, margin float32) (Status, float32, int) {
	if hasAgg {
		m.lastGoodBPM = aggregated
		m.hasGood = true
		if margin > 0 && margin < m.lowConfMargin {
			m.lastGoodStatus = StatusLowConf
			return StatusLowConf, aggregated, lowConfConfidence
		}
		m.lastGoodStatus = StatusOK
		return StatusOK, aggregated, okConfidence
	}

	if m.hasGood && !lastValidBeat.IsZero() {
		since := now.Sub(lastValidBeat)
		if since <= m.holdWindow {
			conf := okConfidence
			if m.lastGoodStatus == StatusLowConf {
				conf = lowConfConfidence
			}
			return m.lastGoodStatus, m.lastGoodBPM, conf
		}
		if since < m.fallbackTimeout {
			// Frozen at the last good value, never extrapolated.
			return StatusFallback, m.lastGoodBPM, fallbackConfidence
		}
	}

	return StatusNoSensor, 0, 0
}
