package fusion

// WindowSize is the number of recent verdicts the alert state is derived
// from. Strictness is bounded by this value.
const WindowSize = 10

// AlertState is the three-level traffic light derived from the sliding
// window contents.
type AlertState string

const (
	AlertGreen  AlertState = "GREEN"
	AlertYellow AlertState = "YELLOW"
	AlertRed    AlertState = "RED"
)

// Window is a fixed-capacity FIFO of the most recent verdicts. The zero
// value is empty and ready to use; it is not safe for concurrent use.
type Window struct {
	verdicts []bool
}

// Push appends a verdict, evicting the oldest once the window is full.
func (w *Window) Push(suspicious bool) {
	w.verdicts = append(w.verdicts, suspicious)
	if len(w.verdicts) > WindowSize {
		w.verdicts = w.verdicts[1:]
	}
}

// Count returns the number of suspicious verdicts currently in the window.
func (w *Window) Count() int {
	n := 0
	for _, v := range w.verdicts {
		if v {
			n++
		}
	}
	return n
}

// Len returns the number of verdicts currently in the window.
func (w *Window) Len() int {
	return len(w.verdicts)
}

// Reset empties the window.
func (w *Window) Reset() {
	w.verdicts = w.verdicts[:0]
}

// State derives the alert state from the window contents. It is recomputed
// in full every tick rather than edge-triggered, which keeps it idempotent:
// state(window) = f(count(window), strictness).
func (w *Window) State(strictness int) AlertState {
	return StateFor(w.Count(), strictness)
}

// StateFor maps a suspicious-count to an alert state: GREEN when the count
// is zero, RED at or above strictness, YELLOW in between.
func StateFor(count, strictness int) AlertState {
	if strictness < 1 {
		strictness = 1
	}
	switch {
	case count >= strictness:
		return AlertRed
	case count >= 1:
		return AlertYellow
	default:
		return AlertGreen
	}
}
