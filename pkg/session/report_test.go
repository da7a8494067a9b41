package session

import (
	"reflect"
	"testing"
	"time"

	"github.com/jaehyun-p/overwatch/pkg/fusion"
	"github.com/jaehyun-p/overwatch/pkg/presence"
)

func TestBuild_Deterministic(t *testing.T) {
	timeline := []TimelinePoint{{0, 0}, {1, 2}, {2, 1}, {3, 3}, {4, 0}}
	accumulated := map[string]int{"b_key": 3, "a_key": 3, "c_key": 7}
	roster := map[string]Identity{
		"a_key": {Name: "a"}, "b_key": {Name: "b"}, "c_key": {Name: "c"},
	}
	t0 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(4 * time.Second)

	first := Build(timeline, accumulated, t0, t1, roster)
	for i := 0; i < 10; i++ {
		if got := Build(timeline, accumulated, t0, t1, roster); !reflect.DeepEqual(got, first) {
			t.Fatal("Build is not deterministic")
		}
	}

	if first.PeakConcurrentViolators != 3 {
		t.Errorf("peak = %d, want 3", first.PeakConcurrentViolators)
	}
	if first.DurationSeconds != 4 {
		t.Errorf("duration = %d, want 4", first.DurationSeconds)
	}

	// Descending by seconds, ties broken by key ascending.
	wantOrder := []string{"c_key", "a_key", "b_key"}
	for i, key := range wantOrder {
		if first.TopViolators[i].Key != key {
			t.Errorf("violator[%d] = %s, want %s", i, first.TopViolators[i].Key, key)
		}
	}
}

func TestBuild_DurationRounds(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		delta time.Duration
		want  int
	}{
		{9499 * time.Millisecond, 9},
		{9500 * time.Millisecond, 10},
		{10 * time.Second, 10},
	}
	for _, tt := range tests {
		r := Build(nil, nil, t0, t0.Add(tt.delta), nil)
		if r.DurationSeconds != tt.want {
			t.Errorf("duration for %v = %d, want %d", tt.delta, r.DurationSeconds, tt.want)
		}
	}
}

func TestBuild_ZeroValued(t *testing.T) {
	r := Build(nil, nil, time.Time{}, time.Time{}, nil)

	if r.DurationSeconds != 0 || r.PeakConcurrentViolators != 0 {
		t.Errorf("zero report has non-zero fields: %+v", r)
	}
	if r.Timeline == nil || len(r.Timeline) != 0 {
		t.Errorf("timeline should be empty non-nil, got %v", r.Timeline)
	}
	if len(r.TopViolators) != 0 {
		t.Errorf("violators should be empty, got %v", r.TopViolators)
	}
}

func TestBuild_ExcludesZeroAccumulators(t *testing.T) {
	accumulated := map[string]int{"clean": 0, "caught": 2}
	r := Build(nil, accumulated, time.Now(), time.Now(), nil)

	if len(r.TopViolators) != 1 || r.TopViolators[0].Key != "caught" {
		t.Errorf("violators = %+v, want only caught", r.TopViolators)
	}
}

func TestStatsOf(t *testing.T) {
	records := []presence.Record{
		{Key: "a", Alert: fusion.AlertRed},
		{Key: "b", Alert: fusion.AlertGreen},
		{Key: "c", Alert: fusion.AlertYellow},
		{Key: "d", Alert: fusion.AlertRed},
	}
	got := StatsOf(records)
	want := Stats{Total: 4, Flagged: 2, Clear: 2}
	if got != want {
		t.Errorf("StatsOf = %+v, want %+v", got, want)
	}

	if got := StatsOf(nil); got != (Stats{}) {
		t.Errorf("StatsOf(nil) = %+v, want zero", got)
	}
}
