package estimator

import "time"

// beatEvent describes a detected candidate beat. anchor is set on the very
// first beat, which only starts the clock and carries no interval.
type beatEvent struct {
	interval time.Duration
	peak     float32
	anchor   bool
}

// beatDetector holds the last three filtered samples and declares a peak when
// the middle one is a strict local maximum above the threshold. A refractory
// gate suppresses double-counting of a single physiological beat.
type beatDetector struct {
	refractory time.Duration

	window [3]float32
	filled int

	lastBeat time.Time // advanced only when the interval is accepted
}

func newBeatDetector(refractory time.Duration) beatDetector {
	return beatDetector{refractory: refractory}
}

// detect shifts the window and reports a candidate beat, if any. The beat
// clock is not advanced here: the caller confirms the interval first and then
// calls advance, so a rejected peak leaves the next one measured against the
// previous accepted beat.
func (d *beatDetector) detect(filtered, threshold float32, now time.Time) (beatEvent, bool) {
	d.window[0] = d.window[1]
	d.window[1] = d.window[2]
	d.window[2] = filtered
	if d.filled < 3 {
		d.filled++
		return beatEvent{}, false
	}

	mid := d.window[1]
	if !(mid > d.window[0] && mid > d.window[2] && mid > threshold) {
		return beatEvent{}, false
	}

	if d.lastBeat.IsZero() {
		// First beat anchors the clock; no interval can be computed yet.
		d.lastBeat = now
		return beatEvent{peak: mid, anchor: true}, true
	}

	dt := now.Sub(d.lastBeat)
	if dt <= d.refractory {
		return beatEvent{}, false
	}

	return beatEvent{interval: dt, peak: mid}, true
}

// advance moves the beat clock to the accepted beat.
func (d *beatDetector) advance(now time.Time) {
	d.lastBeat = now
}

// reset clears the beat clock so the next peak re-anchors instead of being
// measured against a beat from before a prolonged absence.
func (d *beatDetector) reset() {
	d.lastBeat = time.Time{}
}
