package estimator

import (
	"github.com/chewxy/math32"
)

// conditioner isolates the pulsatile component of the raw signal: it removes
// the slow DC baseline, normalizes the unknown sensor gain, and smooths the
// result over a short window.
type conditioner struct {
	dcAlpha   float32
	gainAlpha float32
	targetP2P float32
	maxGain   float32

	baseline float32
	gainEst  float32
	primed   bool

	smooth ring
}

func newConditioner(dcAlpha, gainAlpha, targetP2P, maxGain float64, smoothWindow int) conditioner {
	return conditioner{
		dcAlpha:   float32(dcAlpha),
		gainAlpha: float32(gainAlpha),
		targetP2P: float32(targetP2P),
		maxGain:   float32(maxGain),
		smooth:    newRing(smoothWindow),
	}
}

// condition produces one filtered sample per raw sample; there is no error
// path. The first sample seeds the baseline so re-attachment does not ring
// through the whole DC time constant.
func (c *conditioner) condition(raw uint16) float32 {
	r := float32(raw)
	if !c.primed {
		c.baseline = r
		c.gainEst = 1
		c.primed = true
	}

	c.baseline = c.dcAlpha*c.baseline + (1-c.dcAlpha)*r
	ac := r - c.baseline

	c.gainEst = (1-c.gainAlpha)*c.gainEst + c.gainAlpha*math32.Max(1, math32.Abs(ac))
	gain := clamp(c.targetP2P/math32.Max(1, c.gainEst*2), 1, c.maxGain)

	c.smooth.push(ac * gain)
	return c.smooth.mean()
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
