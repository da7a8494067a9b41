package fusion

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEpisodeGap is how much silence between suspicious ticks splits two
// episodes. Bursty triggers within this gap count as one continuous
// incident rather than many near-duplicate rows.
const DefaultEpisodeGap = 3000 * time.Millisecond

// Episode is a coalesced run of suspicious ticks treated as one incident.
type Episode struct {
	ID          string     `json:"id"`
	StartTime   time.Time  `json:"start_time"`
	LastTime    time.Time  `json:"last_time"`
	RepeatCount int        `json:"repeat_count"`
	PeakScore   float64    `json:"peak_score"`
	Mouth       MouthState `json:"mouth,omitempty"`
}

// EpisodeAggregator coalesces suspicious ticks into episodes. It holds at
// most one open episode at a time; not safe for concurrent use.
type EpisodeAggregator struct {
	gap    time.Duration
	open   *Episode
	closed []Episode
}

// NewEpisodeAggregator creates an aggregator with the given coalescing gap.
// A non-positive gap falls back to DefaultEpisodeGap.
func NewEpisodeAggregator(gap time.Duration) *EpisodeAggregator {
	if gap <= 0 {
		gap = DefaultEpisodeGap
	}
	return &EpisodeAggregator{gap: gap}
}

// Observe records one tick. Non-suspicious ticks change nothing: the open
// episode stays open until a suspicious tick arrives past the gap, or until
// Flush at session stop.
func (a *EpisodeAggregator) Observe(now time.Time, suspicious bool, score float64, mouth MouthState) {
	if !suspicious {
		return
	}

	if a.open != nil && now.Sub(a.open.LastTime) < a.gap {
		// Extend in place.
		a.open.RepeatCount++
		a.open.LastTime = now
		if score > a.open.PeakScore {
			a.open.PeakScore = score
		}
		a.open.Mouth = mouth
		return
	}

	if a.open != nil {
		a.closed = append(a.closed, *a.open)
	}
	a.open = &Episode{
		ID:          uuid.NewString(),
		StartTime:   now,
		LastTime:    now,
		RepeatCount: 1,
		PeakScore:   score,
		Mouth:       mouth,
	}
}

// Open returns a copy of the currently open episode, if any.
func (a *EpisodeAggregator) Open() (Episode, bool) {
	if a.open == nil {
		return Episode{}, false
	}
	return *a.open, true
}

// Closed returns the closed episodes in chronological order.
func (a *EpisodeAggregator) Closed() []Episode {
	out := make([]Episode, len(a.closed))
	copy(out, a.closed)
	return out
}

// All returns every episode, closed first, the open one (as-is) last.
func (a *EpisodeAggregator) All() []Episode {
	out := a.Closed()
	if a.open != nil {
		out = append(out, *a.open)
	}
	return out
}

// Flush closes any still-open episode as-is. Called at session stop.
func (a *EpisodeAggregator) Flush() {
	if a.open != nil {
		a.closed = append(a.closed, *a.open)
		a.open = nil
	}
}

// AverageDuration returns the mean episode duration over closed episodes,
// sum(repeatCount) * tickInterval / count. The open episode is excluded.
// Returns 0 with no closed episodes.
func (a *EpisodeAggregator) AverageDuration(tickInterval time.Duration) time.Duration {
	if len(a.closed) == 0 {
		return 0
	}
	total := 0
	for _, e := range a.closed {
		total += e.RepeatCount
	}
	return time.Duration(total) * tickInterval / time.Duration(len(a.closed))
}

// Reset drops all episode state.
func (a *EpisodeAggregator) Reset() {
	a.open = nil
	a.closed = nil
}
