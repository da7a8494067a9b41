package session

import (
	"math"
	"sort"
	"time"

	"github.com/jaehyun-p/overwatch/pkg/fusion"
	"github.com/jaehyun-p/overwatch/pkg/presence"
)

// Identity is a participant's display identity for the report.
type Identity struct {
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
}

// Violator is one ranked entry in the report.
type Violator struct {
	Key                string `json:"key"`
	Name               string `json:"name"`
	StudentID          string `json:"student_id"`
	AccumulatedSeconds int    `json:"accumulated_seconds"`
}

// Report is the immutable end-of-session summary.
type Report struct {
	DurationSeconds         int             `json:"duration_seconds"`
	PeakConcurrentViolators int             `json:"peak_concurrent_violators"`
	Timeline                []TimelinePoint `json:"timeline"`
	TopViolators            []Violator      `json:"top_violators"`
}

// Build reduces the retained timeline and accumulators into a report. It is
// deterministic, and with zero timeline points or zero participants it
// returns a well-formed zero-valued report rather than failing.
func Build(timeline []TimelinePoint, accumulated map[string]int,
	startedAt, stoppedAt time.Time, roster map[string]Identity) Report {

	duration := 0
	if !startedAt.IsZero() && !stoppedAt.Before(startedAt) {
		duration = int(math.Round(float64(stoppedAt.Sub(startedAt).Milliseconds()) / 1000))
	}

	peak := 0
	for _, p := range timeline {
		if p.ConcurrentViolators > peak {
			peak = p.ConcurrentViolators
		}
	}

	violators := make([]Violator, 0, len(accumulated))
	for key, seconds := range accumulated {
		if seconds <= 0 {
			continue
		}
		id := roster[key]
		violators = append(violators, Violator{
			Key:                key,
			Name:               id.Name,
			StudentID:          id.StudentID,
			AccumulatedSeconds: seconds,
		})
	}
	// Descending by caught-time, stable tie-break by key ascending.
	sort.Slice(violators, func(i, j int) bool {
		if violators[i].AccumulatedSeconds != violators[j].AccumulatedSeconds {
			return violators[i].AccumulatedSeconds > violators[j].AccumulatedSeconds
		}
		return violators[i].Key < violators[j].Key
	})

	tl := make([]TimelinePoint, len(timeline))
	copy(tl, timeline)

	return Report{
		DurationSeconds:         duration,
		PeakConcurrentViolators: peak,
		Timeline:                tl,
		TopViolators:            violators,
	}
}

// Stats are the live dashboard counters, derived idempotently from each
// snapshot.
type Stats struct {
	Total   int `json:"total"`
	Flagged int `json:"flagged"`
	Clear   int `json:"clear"`
}

// StatsOf derives the counters from a presence snapshot.
func StatsOf(records []presence.Record) Stats {
	s := Stats{Total: len(records)}
	for _, rec := range records {
		if rec.Alert == fusion.AlertRed {
			s.Flagged++
		}
	}
	s.Clear = s.Total - s.Flagged
	return s
}
