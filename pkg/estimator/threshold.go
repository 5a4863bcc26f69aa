package estimator

import "github.com/chewxy/math32"

// thresholdTracker adapts the peak-detection bar to the current signal
// energy, so a light or heavy finger placement neither floods nor starves
// the detector. The floor keeps near-zero noise from triggering.
type thresholdTracker struct {
	alpha      float32
	floor      float32
	prominence float32

	rms float32
}

func newThresholdTracker(alpha, floor, prominence float64) thresholdTracker {
	return thresholdTracker{
		alpha:      float32(alpha),
		floor:      float32(floor),
		prominence: float32(prominence),
	}
}

func (t *thresholdTracker) update(filtered float32) float32 {
	t.rms = t.alpha*t.rms + (1-t.alpha)*math32.Abs(filtered)
	return math32.Max(t.floor, t.rms*t.prominence)
}
