package vision

import "math"

// historySize is how many recent gap samples the movement estimate uses.
const historySize = 5

// LipTracker derives the lip-movement signal from raw landmarks: the
// standard deviation of the last few mouth gap samples. A mouth held open
// has a large gap but near-zero movement; talking produces both.
// Not safe for concurrent use; the sampling loop owns it.
type LipTracker struct {
	gaps []float64
}

// Update records the gap for this tick and returns (gap, movement).
func (t *LipTracker) Update(lips LipLandmarks) (gap, movement float64) {
	gap = lips.Gap()

	t.gaps = append(t.gaps, gap)
	if len(t.gaps) > historySize {
		t.gaps = t.gaps[1:]
	}

	return gap, stddev(t.gaps)
}

// Reset clears the gap history, e.g. after the face is lost.
func (t *LipTracker) Reset() {
	t.gaps = t.gaps[:0]
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs))

	return math.Sqrt(variance)
}
