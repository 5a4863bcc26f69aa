package estimator

import (
	"math"
	"time"
)

// Jitter is an opt-in cosmetic post-processing stage that wobbles the
// reported BPM by a bounded, deterministic amount so a rock-steady simulated
// source looks alive on a display. It fabricates variability the sensor never
// measured, so it must stay out of the estimation path and disabled unless a
// demo explicitly asks for it.
type Jitter struct {
	amplitude float64
	period    time.Duration
	epoch     time.Time
}

// NewJitter creates the wobble stage. amplitude is the maximum deviation in
// BPM, period the wobble cycle length.
func NewJitter(amplitude float64, period time.Duration) *Jitter {
	return &Jitter{
		amplitude: amplitude,
		period:    period,
	}
}

// Apply perturbs the BPM of fresh estimates only; fallback and no-sensor
// ticks pass through untouched so held values stay frozen.
func (j *Jitter) Apply(res Result) Result {
	if res.Status != StatusOK && res.Status != StatusLowConf {
		return res
	}
	if j.epoch.IsZero() {
		j.epoch = res.Timestamp
	}

	phase := float64(res.Timestamp.Sub(j.epoch)) / float64(j.period)
	wobble := j.amplitude * math.Sin(2*math.Pi*phase)

	res.BPM += int(math.Round(wobble))
	if res.BPM < 0 {
		res.BPM = 0
	}
	return res
}
