package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/jaehyun-p/overwatch/pkg/audio"
	"github.com/jaehyun-p/overwatch/pkg/fusion"
	"github.com/jaehyun-p/overwatch/pkg/presence"
	"github.com/jaehyun-p/overwatch/pkg/vision"
)

// fakeFrames always hands back the same dummy frame.
type fakeFrames struct{}

func (fakeFrames) CaptureJPEG() ([]byte, error) { return []byte{0xff, 0xd8}, nil }

// fakePublisher records every replicated update.
type fakePublisher struct {
	updates []presence.UpdateData
}

func (p *fakePublisher) Upsert(u presence.UpdateData) {
	p.updates = append(p.updates, u)
}

func koreanLabels(score float64) []audio.Label {
	return []audio.Label{
		{Name: "korean", Score: score},
		{Name: "noise", Score: 1 - score},
	}
}

func noiseLabels() []audio.Label {
	return []audio.Label{
		{Name: "noise", Score: 0.95},
		{Name: "korean", Score: 0.05},
	}
}

func filledBuffer(size int) *audio.CaptureBuffer {
	b := audio.NewCaptureBuffer(size)
	b.Append(make([]int16, size))
	return b
}

// talkingLips alternates between two gaps so the movement estimate (a
// stddev over recent gaps) comes out around 0.003, above the 0.002
// speaking threshold once two samples are in.
func talkingLips(n int) []vision.MockResult {
	out := make([]vision.MockResult, n)
	for i := range out {
		gap := 0.018
		if i%2 == 1 {
			gap = 0.024
		}
		out[i] = vision.MockResult{Lips: vision.LipsWithGap(gap), Found: true}
	}
	return out
}

func TestMonitor_DetectionScenario(t *testing.T) {
	lips := vision.NewMock(talkingLips(6)...)
	classifier := audio.NewMockClassifier(
		audio.MockResult{Labels: noiseLabels()},
		audio.MockResult{Labels: noiseLabels()},
		audio.MockResult{Labels: koreanLabels(0.9)},
	)
	pub := &fakePublisher{}

	m := New(DefaultConfig(), fakeFrames{}, lips, classifier,
		filledBuffer(classifier.InputSize()), pub)
	m.isRunning.Store(true)

	ctx := context.Background()
	t0 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	tick := func(i int) { m.sample(ctx, t0.Add(time.Duration(i)*250*time.Millisecond)) }

	// Two warm-up ticks with background noise prime the movement history.
	tick(0)
	tick(1)
	if got := m.Status().Alert; got != fusion.AlertGreen {
		t.Fatalf("alert after warm-up = %s, want GREEN", got)
	}

	// Four forbidden-speech ticks in a row.
	tick(2)
	tick(3)
	if got := m.Status().Alert; got != fusion.AlertYellow {
		t.Errorf("alert after 2 hits = %s, want YELLOW", got)
	}
	tick(4)
	if got := m.Status().Alert; got != fusion.AlertRed {
		t.Errorf("alert after 3 hits = %s, want RED", got)
	}
	tick(5)

	st := m.Status()
	if st.Alert != fusion.AlertRed {
		t.Errorf("alert = %s, want RED", st.Alert)
	}
	if st.SuspectCount != 4 {
		t.Errorf("suspect count = %d, want 4", st.SuspectCount)
	}
	if st.Label != "korean" {
		t.Errorf("label = %q, want korean", st.Label)
	}
	if st.Mouth != fusion.MouthSpeaking {
		t.Errorf("mouth = %s, want Speaking", st.Mouth)
	}
	if st.Stack != 4 {
		t.Errorf("stack = %d, want 4", st.Stack)
	}

	episodes := m.Episodes()
	if len(episodes) != 1 {
		t.Fatalf("episodes = %d, want 1", len(episodes))
	}
	if episodes[0].RepeatCount != 4 {
		t.Errorf("repeat count = %d, want 4", episodes[0].RepeatCount)
	}
	if episodes[0].PeakScore != 0.9 {
		t.Errorf("peak score = %v, want 0.9", episodes[0].PeakScore)
	}

	// Every tick replicated full state.
	if len(pub.updates) != 6 {
		t.Fatalf("published updates = %d, want 6", len(pub.updates))
	}
	last := pub.updates[5]
	if last.Alert != string(fusion.AlertRed) || last.Stack != 4 {
		t.Errorf("last update = %+v, want RED stack 4", last)
	}

	if got := len(m.Violations()); got != 4 {
		t.Errorf("violation log = %d entries, want 4", got)
	}
}

func TestMonitor_MissingSignalsDegrade(t *testing.T) {
	m := New(DefaultConfig(), nil, nil, nil, nil, nil)
	m.isRunning.Store(true)

	m.sample(context.Background(), time.Now())

	st := m.Status()
	if st.Alert != fusion.AlertGreen {
		t.Errorf("alert = %s, want GREEN", st.Alert)
	}
	if st.Mouth != fusion.MouthNoFace {
		t.Errorf("mouth = %s, want No Face", st.Mouth)
	}
	if st.Label != "noise" {
		t.Errorf("label = %q, want noise", st.Label)
	}
}

func TestMonitor_LateResultDiscarded(t *testing.T) {
	lips := vision.NewMock(talkingLips(2)...)
	classifier := audio.NewMockClassifier(audio.MockResult{Labels: koreanLabels(0.9)})
	pub := &fakePublisher{}

	m := New(DefaultConfig(), fakeFrames{}, lips, classifier,
		filledBuffer(classifier.InputSize()), pub)

	// Not running: a sample completing after stop must change nothing.
	m.sample(context.Background(), time.Now())

	if got := m.Status(); got != (Status{}) {
		t.Errorf("status mutated after stop: %+v", got)
	}
	if len(pub.updates) != 0 {
		t.Errorf("published %d updates after stop, want 0", len(pub.updates))
	}
	if got := len(m.Episodes()); got != 0 {
		t.Errorf("episodes recorded after stop: %d", got)
	}
}

func TestMonitor_LiveLogBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LiveLogSize = 10
	m := New(cfg, nil, nil, nil, nil, nil)
	m.isRunning.Store(true)

	t0 := time.Now()
	for i := 0; i < 25; i++ {
		m.sample(context.Background(), t0.Add(time.Duration(i)*250*time.Millisecond))
	}

	logs := m.LiveLog()
	if len(logs) != 10 {
		t.Fatalf("live log = %d entries, want 10", len(logs))
	}
	// Newest first.
	wantNewest := t0.Add(24 * 250 * time.Millisecond).Format("15:04:05")
	if logs[0].Time != wantNewest {
		t.Errorf("newest entry time = %s, want %s", logs[0].Time, wantNewest)
	}
}

func TestMonitor_SetThresholds(t *testing.T) {
	m := New(DefaultConfig(), nil, nil, nil, nil, nil)

	custom := fusion.Thresholds{
		ConfidenceMin:  0.8,
		MouthOpenMin:   0.02,
		LipMovementMin: 0.005,
		Strictness:     5,
	}
	m.SetThresholds(custom)

	if got := m.Thresholds(); got != custom {
		t.Errorf("thresholds = %+v, want %+v", got, custom)
	}
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleInterval = 5 * time.Millisecond
	m := New(cfg, nil, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if m.isRunning.Load() {
		t.Error("isRunning still set after Run returned")
	}
}
