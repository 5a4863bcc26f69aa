package estimator

import "time"

// intervalHistory gates beat-to-beat intervals by plausible-BPM bounds and
// keeps the accepted ones in a fixed ring. Rejection is silent: an implausible
// interval is a filtering decision, not a fault.
type intervalHistory struct {
	minBPM float32
	maxBPM float32

	intervals ring // milliseconds
}

func newIntervalHistory(minBPM, maxBPM float64, capacity int) intervalHistory {
	return intervalHistory{
		minBPM:    float32(minBPM),
		maxBPM:    float32(maxBPM),
		intervals: newRing(capacity),
	}
}

// accept stores the interval iff its implied rate is plausible.
func (h *intervalHistory) accept(dt time.Duration) bool {
	ms := float32(dt.Milliseconds())
	if ms <= 0 {
		return false
	}
	bpm := 60000 / ms
	if bpm < h.minBPM || bpm > h.maxBPM {
		return false
	}
	h.intervals.push(ms)
	return true
}

// candidate derives a BPM from the mean accepted interval. The same
// plausibility bounds apply to the aggregate, which can drift outside them
// while the ring still holds stale history.
func (h *intervalHistory) candidate() (float32, bool) {
	if h.intervals.len() == 0 {
		return 0, false
	}
	bpm := 60000 / h.intervals.mean()
	if bpm < h.minBPM || bpm > h.maxBPM {
		return 0, false
	}
	return bpm, true
}

func (h *intervalHistory) reset() {
	h.intervals.reset()
}
