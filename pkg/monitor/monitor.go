// Package monitor runs the per-participant sampling loop: every tick it
// pulls one visual and one audio observation, fuses them into a verdict,
// advances the alert state machine and episode aggregator, and replicates
// the resulting state.
package monitor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaehyun-p/overwatch/internal/log"
	"github.com/jaehyun-p/overwatch/pkg/audio"
	"github.com/jaehyun-p/overwatch/pkg/fusion"
	"github.com/jaehyun-p/overwatch/pkg/presence"
	"github.com/jaehyun-p/overwatch/pkg/vision"
)

// StatePublisher replicates the participant's state after each tick.
// Publishing is fire-and-forget; the next tick re-sends full state.
type StatePublisher interface {
	Upsert(update presence.UpdateData)
}

// TickLog is one live-view log row, mirroring what the tick decided.
type TickLog struct {
	Time    string `json:"time"`
	Label   string `json:"label"`
	Score   int    `json:"score"` // Percent
	Mouth   string `json:"mouth"`
	Suspect bool   `json:"suspect"`
}

// Status is the monitor's current display state.
type Status struct {
	Alert        fusion.AlertState `json:"alert"`
	Mouth        fusion.MouthState `json:"mouth"`
	Label        string            `json:"label"`
	Score        float64           `json:"score"`
	Stack        int               `json:"stack"`
	SuspectCount int               `json:"suspect_count"`
}

// Monitor owns one participant's decision state. The sampling loop is the
// sole writer; accessors copy under a mutex.
type Monitor struct {
	config    Config
	frames    vision.FrameSource
	lips      vision.Provider
	classify  audio.Classifier
	capture   *audio.CaptureBuffer
	publisher StatePublisher

	// isRunning is consulted at the top of every asynchronous
	// continuation: results arriving after stop are discarded.
	isRunning atomic.Bool

	// busy gates tick overlap: a tick firing while inference is still in
	// flight is skipped, never queued.
	busy atomic.Bool

	// skipped counts dropped ticks, for diagnostics.
	skipped atomic.Int64

	mu         sync.Mutex
	thresholds fusion.Thresholds
	window     fusion.Window
	episodes   *fusion.EpisodeAggregator
	tracker    vision.LipTracker
	status     Status
	liveLog    []TickLog
	violations []TickLog
}

// New creates a monitor. Any provider may be nil; a missing signal
// degrades to its absent default each tick rather than failing.
func New(cfg Config, frames vision.FrameSource, lips vision.Provider,
	classify audio.Classifier, capture *audio.CaptureBuffer, publisher StatePublisher) *Monitor {

	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultConfig().SampleInterval
	}
	if cfg.LiveLogSize <= 0 {
		cfg.LiveLogSize = DefaultConfig().LiveLogSize
	}

	return &Monitor{
		config:     cfg,
		frames:     frames,
		lips:       lips,
		classify:   classify,
		capture:    capture,
		publisher:  publisher,
		thresholds: cfg.Thresholds.Normalize(),
		episodes:   fusion.NewEpisodeAggregator(cfg.EpisodeGap),
	}
}

// SetThresholds updates the decision thresholds; they take effect on the
// next tick.
func (m *Monitor) SetThresholds(t fusion.Thresholds) {
	m.mu.Lock()
	m.thresholds = t.Normalize()
	m.mu.Unlock()
}

// Thresholds returns the current decision thresholds.
func (m *Monitor) Thresholds() fusion.Thresholds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.thresholds
}

// Run drives the sampling loop until ctx is canceled. Stopping guarantees
// no further ticks fire; an in-flight tick's late result is discarded.
func (m *Monitor) Run(ctx context.Context) {
	m.isRunning.Store(true)
	defer func() {
		m.isRunning.Store(false)
		m.mu.Lock()
		m.episodes.Flush()
		m.mu.Unlock()
	}()

	ticker := time.NewTicker(m.config.SampleInterval)
	defer ticker.Stop()

	log.Info("monitoring started", "interval", m.config.SampleInterval)

	for {
		select {
		case <-ctx.Done():
			log.Info("monitoring stopped", "skipped_ticks", m.skipped.Load())
			return

		case <-ticker.C:
			if !m.busy.CompareAndSwap(false, true) {
				// Previous tick's inference still in flight: drop
				// this tick and keep serving the freshest one.
				m.skipped.Add(1)
				continue
			}
			go func() {
				defer m.busy.Store(false)
				m.sample(ctx, time.Now())
			}()
		}
	}
}

// sample takes one joint observation and advances all decision state.
// Both sub-signals are read as of the same decision instant.
func (m *Monitor) sample(ctx context.Context, now time.Time) {
	obs := fusion.Observation{
		AudioLabel: "noise",
		Timestamp:  now,
	}

	// Vision check: any failure degrades to "no face" and carries on.
	if m.frames != nil && m.lips != nil {
		if frame, err := m.frames.CaptureJPEG(); err == nil {
			lm, found, err := m.lips.DetectLips(frame)
			if err != nil {
				log.Debug("lip detection failed", "error", err)
			} else if found {
				obs.HasFace = true
				m.mu.Lock()
				obs.MouthGap, obs.LipMovement = m.tracker.Update(lm)
				m.mu.Unlock()
			}
		}
	}

	// Audio check: degrade to no label / zero confidence on any failure.
	if m.classify != nil && m.capture != nil {
		if window, ok := m.capture.Window(); ok {
			if labels, err := m.classify.Classify(ctx, window); err != nil {
				log.Debug("audio classification failed", "error", err)
			} else if top, ok := audio.TopLabel(labels); ok {
				obs.AudioLabel = top.Name
				obs.AudioConfidence = top.Score
			}
		}
	}

	// A result that lands after stop must not mutate any state.
	if !m.isRunning.Load() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	th := m.thresholds
	suspect := fusion.Classify(obs, th)
	mouth := fusion.MouthStateOf(obs, th)

	m.window.Push(suspect)
	m.episodes.Observe(now, suspect, obs.AudioConfidence, mouth)

	stack := 0
	if open, ok := m.episodes.Open(); ok {
		stack = open.RepeatCount
	}

	m.status = Status{
		Alert:        m.window.State(th.Strictness),
		Mouth:        mouth,
		Label:        strings.ToLower(obs.AudioLabel),
		Score:        obs.AudioConfidence,
		Stack:        stack,
		SuspectCount: m.window.Count(),
	}

	entry := TickLog{
		Time:    now.Format("15:04:05"),
		Label:   m.status.Label,
		Score:   int(obs.AudioConfidence*100 + 0.5),
		Mouth:   string(mouth),
		Suspect: suspect,
	}
	m.liveLog = append(m.liveLog, entry)
	if len(m.liveLog) > m.config.LiveLogSize {
		m.liveLog = m.liveLog[1:]
	}
	if suspect {
		m.violations = append(m.violations, entry)
	}

	if m.publisher != nil {
		m.publisher.Upsert(presence.UpdateData{
			Alert: string(m.status.Alert),
			Stack: stack,
			Label: m.status.Label,
			Mouth: string(mouth),
			Score: obs.AudioConfidence,
		})
	}
}

// Status returns the current display state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// LiveLog returns the retained tick logs, newest first.
func (m *Monitor) LiveLog() []TickLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TickLog, len(m.liveLog))
	for i, e := range m.liveLog {
		out[len(out)-1-i] = e
	}
	return out
}

// Violations returns every suspicious tick log, newest first.
func (m *Monitor) Violations() []TickLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TickLog, len(m.violations))
	for i, e := range m.violations {
		out[len(out)-1-i] = e
	}
	return out
}

// Episodes returns all violation episodes, closed first.
func (m *Monitor) Episodes() []fusion.Episode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.episodes.All()
}

// SkippedTicks returns how many ticks were dropped because inference was
// still in flight.
func (m *Monitor) SkippedTicks() int64 {
	return m.skipped.Load()
}
