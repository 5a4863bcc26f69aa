package monitor

import "github.com/itohio/gohrm/pkg/estimator"

// Downsample decimates a result series to at most maxPoints for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise
// allocates new. Returns the destination slice.
func Downsample(dst []estimator.Result, results []estimator.Result, maxPoints int) []estimator.Result {
	if len(results) <= maxPoints {
		if cap(dst) >= len(results) {
			dst = dst[:len(results)]
			copy(dst, results)
			return dst
		}
		out := make([]estimator.Result, len(results))
		copy(out, results)
		return out
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]estimator.Result, 0, maxPoints)
	}

	step := float64(len(results)) / float64(maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(results) {
			dst = append(dst, results[idx])
		}
	}

	return dst
}
