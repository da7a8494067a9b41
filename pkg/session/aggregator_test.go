package session

import (
	"testing"
	"time"

	"github.com/jaehyun-p/overwatch/pkg/fusion"
	"github.com/jaehyun-p/overwatch/pkg/presence"
)

// fakeStore is a settable snapshot source.
type fakeStore struct {
	records []presence.Record
}

func (f *fakeStore) Snapshot() []presence.Record {
	out := make([]presence.Record, len(f.records))
	copy(out, f.records)
	return out
}

func (f *fakeStore) set(alert fusion.AlertState) {
	f.records = []presence.Record{{
		Key:       "2024001_kim",
		Name:      "kim",
		StudentID: "2024001",
		Alert:     alert,
	}}
}

func newTestAggregator(store Snapshotter, start time.Time) (*Aggregator, *time.Time) {
	a := NewAggregator(store)
	now := start
	a.now = func() time.Time { return now }
	return a, &now
}

func TestAggregator_SessionScenario(t *testing.T) {
	store := &fakeStore{}
	t0 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	a, now := newTestAggregator(store, t0)

	a.Start()

	// 5 seconds RED, then 5 seconds GREEN.
	store.set(fusion.AlertRed)
	for i := 0; i < 5; i++ {
		a.Tick()
	}
	store.set(fusion.AlertGreen)
	for i := 0; i < 5; i++ {
		a.Tick()
	}

	*now = t0.Add(10 * time.Second)
	report := a.Stop()

	if report.DurationSeconds != 10 {
		t.Errorf("DurationSeconds = %d, want 10", report.DurationSeconds)
	}
	if report.PeakConcurrentViolators != 1 {
		t.Errorf("PeakConcurrentViolators = %d, want 1", report.PeakConcurrentViolators)
	}
	if len(report.TopViolators) != 1 {
		t.Fatalf("TopViolators len = %d, want 1", len(report.TopViolators))
	}
	if report.TopViolators[0].AccumulatedSeconds != 5 {
		t.Errorf("AccumulatedSeconds = %d, want 5", report.TopViolators[0].AccumulatedSeconds)
	}
	if report.TopViolators[0].Name != "kim" {
		t.Errorf("violator name = %q, want kim", report.TopViolators[0].Name)
	}

	// Timeline: zero point plus one per tick, within one tick of slack.
	if len(report.Timeline) < 10 || len(report.Timeline) > 11 {
		t.Errorf("timeline len = %d, want 10..11", len(report.Timeline))
	}
}

func TestAggregator_StartIdempotent(t *testing.T) {
	store := &fakeStore{}
	a, _ := newTestAggregator(store, time.Now())

	a.Start()
	store.set(fusion.AlertRed)
	a.Tick()
	a.Tick()

	// A second Start while active must not reset anything.
	a.Start()
	if got := a.AccumulatedSeconds("2024001_kim"); got != 2 {
		t.Errorf("accumulated after re-Start = %d, want 2", got)
	}
}

func TestAggregator_StopIdempotentAndFrozen(t *testing.T) {
	store := &fakeStore{}
	t0 := time.Now()
	a, now := newTestAggregator(store, t0)

	a.Start()
	store.set(fusion.AlertRed)
	a.Tick()

	*now = t0.Add(1 * time.Second)
	first := a.Stop()

	// Ticks after stop are ignored; accumulators are frozen.
	a.Tick()
	a.Tick()
	*now = t0.Add(30 * time.Second)
	second := a.Stop()

	if second.DurationSeconds != first.DurationSeconds {
		t.Errorf("second Stop duration = %d, want %d", second.DurationSeconds, first.DurationSeconds)
	}
	if len(second.Timeline) != len(first.Timeline) {
		t.Errorf("timeline grew after stop: %d != %d", len(second.Timeline), len(first.Timeline))
	}
	if got := a.AccumulatedSeconds("2024001_kim"); got != 1 {
		t.Errorf("accumulated after stop = %d, want 1", got)
	}
}

func TestAggregator_RestartResets(t *testing.T) {
	store := &fakeStore{}
	a, _ := newTestAggregator(store, time.Now())

	a.Start()
	store.set(fusion.AlertRed)
	a.Tick()
	a.Stop()

	a.Start()
	if got := a.AccumulatedSeconds("2024001_kim"); got != 0 {
		t.Errorf("accumulated after restart = %d, want 0", got)
	}
	if _, ok := a.Report(); ok {
		t.Error("frozen report must be cleared by Start")
	}
}

func TestAggregator_AccumulatedMonotonic(t *testing.T) {
	store := &fakeStore{}
	a, _ := newTestAggregator(store, time.Now())

	a.Start()
	prev := 0
	states := []fusion.AlertState{
		fusion.AlertRed, fusion.AlertGreen, fusion.AlertRed,
		fusion.AlertYellow, fusion.AlertRed, fusion.AlertGreen,
	}
	for _, st := range states {
		store.set(st)
		a.Tick()
		got := a.AccumulatedSeconds("2024001_kim")
		if got < prev {
			t.Fatalf("accumulated decreased: %d -> %d", prev, got)
		}
		prev = got
	}
	if prev != 3 {
		t.Errorf("accumulated = %d, want 3 (one per RED tick)", prev)
	}
}

func TestAggregator_YellowDoesNotAccumulate(t *testing.T) {
	store := &fakeStore{}
	a, _ := newTestAggregator(store, time.Now())

	a.Start()
	store.set(fusion.AlertYellow)
	a.Tick()

	if got := a.AccumulatedSeconds("2024001_kim"); got != 0 {
		t.Errorf("YELLOW accumulated %d seconds, want 0", got)
	}
	report := a.Stop()
	if report.PeakConcurrentViolators != 0 {
		t.Errorf("peak = %d, want 0", report.PeakConcurrentViolators)
	}
}

func TestAggregator_TickInactiveNoop(t *testing.T) {
	store := &fakeStore{}
	store.set(fusion.AlertRed)
	a, _ := newTestAggregator(store, time.Now())

	a.Tick()
	if got := a.AccumulatedSeconds("2024001_kim"); got != 0 {
		t.Errorf("tick before start accumulated %d", got)
	}
}
