package estimator

// Blend weights between the responsive mean window and the outlier-resistant
// median window.
const (
	meanWeight   = 0.6
	medianWeight = 0.4
)

// aggregator smooths candidate BPM values through two independent windows: a
// short median that suppresses a single outlier candidate, and a longer
// moving average that tracks genuine rate changes.
type aggregator struct {
	medianWin ring
	avgWin    ring
}

func newAggregator(medianWindow, averageWindow int) aggregator {
	return aggregator{
		medianWin: newRing(medianWindow),
		avgWin:    newRing(averageWindow),
	}
}

// aggregate pushes an already-validated candidate into both windows and
// returns the blended estimate.
func (a *aggregator) aggregate(candidate float32) float32 {
	a.medianWin.push(candidate)
	a.avgWin.push(candidate)
	return meanWeight*a.avgWin.mean() + medianWeight*a.medianWin.median()
}

func (a *aggregator) reset() {
	a.medianWin.reset()
	a.avgWin.reset()
}
