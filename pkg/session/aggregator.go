// Package session provides cross-participant aggregation: the 1 Hz
// timeline sampler, per-participant violation-seconds accumulators, and the
// end-of-session report.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jaehyun-p/overwatch/internal/log"
	"github.com/jaehyun-p/overwatch/pkg/fusion"
	"github.com/jaehyun-p/overwatch/pkg/presence"
)

// TimelinePoint is one 1 Hz sample of the session.
type TimelinePoint struct {
	TSeconds            int `json:"t_seconds"`
	ConcurrentViolators int `json:"concurrent_violators"`
}

// Snapshotter supplies the latest replicated participant records. The
// aggregator only reads snapshots; it never blocks on or triggers a
// sampling tick.
type Snapshotter interface {
	Snapshot() []presence.Record
}

// rosterEntry maps a participant key to display identity for the report.
type rosterEntry struct {
	name      string
	studentID string
}

// Aggregator samples the presence store at a fixed 1 Hz, independent of the
// per-participant sampling cadence. Converting the bursty event stream into
// a uniform series is deliberate: it yields a plottable timeline and a
// seconds-denominated caught-time metric.
type Aggregator struct {
	store Snapshotter

	mu          sync.Mutex
	active      bool
	startedAt   time.Time
	elapsed     int
	timeline    []TimelinePoint
	accumulated map[string]int
	roster      map[string]rosterEntry
	frozen      *Report

	now func() time.Time // Injectable for tests
}

// NewAggregator creates an aggregator reading from the given snapshot
// source.
func NewAggregator(store Snapshotter) *Aggregator {
	return &Aggregator{
		store: store,
		now:   time.Now,
	}
}

// Start begins a session: timeline reset to the zero point, accumulators
// and elapsed time cleared. Calling Start while already active is a no-op.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return
	}

	a.active = true
	a.startedAt = a.now()
	a.elapsed = 0
	a.timeline = []TimelinePoint{{TSeconds: 0, ConcurrentViolators: 0}}
	a.accumulated = make(map[string]int)
	a.roster = make(map[string]rosterEntry)
	a.frozen = nil

	log.Info("session started")
}

// Tick takes one 1 Hz sample: counts RED participants into the timeline
// and credits each of them one accumulated second. No-op when inactive.
func (a *Aggregator) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return
	}

	snapshot := a.store.Snapshot()
	a.elapsed++

	violators := 0
	for _, rec := range snapshot {
		a.roster[rec.Key] = rosterEntry{name: rec.Name, studentID: rec.StudentID}
		if rec.Alert == fusion.AlertRed {
			violators++
			a.accumulated[rec.Key]++
		}
	}

	a.timeline = append(a.timeline, TimelinePoint{
		TSeconds:            a.elapsed,
		ConcurrentViolators: violators,
	})
}

// Stop ends the session and returns the frozen report. Idempotent: a
// second Stop returns the same report; a new Start is required to begin a
// new session.
func (a *Aggregator) Stop() Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen != nil {
		return *a.frozen
	}

	a.active = false
	report := a.buildLocked(a.now())
	a.frozen = &report

	log.Info("session stopped",
		"duration_s", report.DurationSeconds,
		"peak", report.PeakConcurrentViolators)
	return report
}

// Active reports whether a session is running.
func (a *Aggregator) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Report returns the frozen report from the last Stop, if any.
func (a *Aggregator) Report() (Report, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen == nil {
		return Report{}, false
	}
	return *a.frozen, true
}

// AccumulatedSeconds returns one participant's current caught-time.
func (a *Aggregator) AccumulatedSeconds(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accumulated[key]
}

// Run drives Tick on a 1 Hz ticker until ctx is canceled. The loop runs
// whether or not a session is active; Tick itself gates on the session
// state, so Start/Stop need no loop management.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Tick()
		}
	}
}

func (a *Aggregator) buildLocked(stoppedAt time.Time) Report {
	names := make(map[string]Identity, len(a.roster))
	for k, v := range a.roster {
		names[k] = Identity{Name: v.name, StudentID: v.studentID}
	}
	return Build(a.timeline, a.accumulated, a.startedAt, stoppedAt, names)
}
