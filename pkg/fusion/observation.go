// Package fusion implements the audiovisual decision engine: it fuses one
// visual observation (mouth aperture and lip movement) with one audio
// observation (language label and confidence) per tick and derives a
// per-participant alert state and violation episodes.
package fusion

import "time"

// Observation is one joint audiovisual sample, produced once per tick.
// It is immutable and consumed synchronously by Classify.
type Observation struct {
	// MouthGap is the normalized vertical distance between the upper and
	// lower lip landmarks (0-1 frame coordinates).
	MouthGap float64

	// LipMovement is the standard deviation of recent mouth gap samples.
	// It separates talking from a mouth that is simply held open.
	LipMovement float64

	// HasFace reports whether a face was detected this tick.
	HasFace bool

	// AudioLabel is the top label from the language classifier
	// (e.g. "korean", "english", "noise").
	AudioLabel string

	// AudioConfidence is the classifier score for AudioLabel (0-1).
	AudioConfidence float64

	// Timestamp is the decision instant for this tick.
	Timestamp time.Time
}

// Thresholds holds the per-participant tunable decision parameters.
// All values are in canonical units; percent-based display scaling is a
// view concern (see FromPercent).
type Thresholds struct {
	// ConfidenceMin is the minimum classifier score to trust the audio
	// label (0-1).
	ConfidenceMin float64 `json:"confidence_min" yaml:"confidence_min"`

	// MouthOpenMin is the minimum normalized mouth gap to consider the
	// mouth open.
	MouthOpenMin float64 `json:"mouth_open_min" yaml:"mouth_open_min"`

	// LipMovementMin is the minimum lip movement stddev to consider the
	// participant speaking rather than just open-mouthed.
	LipMovementMin float64 `json:"lip_movement_min" yaml:"lip_movement_min"`

	// Strictness is the number of suspicious ticks within the sliding
	// window required to escalate to RED (1-10).
	Strictness int `json:"strictness" yaml:"strictness"`
}

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConfidenceMin:  0.50,
		MouthOpenMin:   0.010,
		LipMovementMin: 0.0020,
		Strictness:     3,
	}
}

// FromPercent converts display-scaled settings to canonical thresholds:
// confidence 50 → 0.50, mouthOpen 10 → 0.010, lipMovement 20 → 0.0020.
// Strictness is passed through.
func FromPercent(confidence, mouthOpen, lipMovement, strictness int) Thresholds {
	return Thresholds{
		ConfidenceMin:  float64(confidence) / 100,
		MouthOpenMin:   float64(mouthOpen) / 1000,
		LipMovementMin: float64(lipMovement) / 10000,
		Strictness:     strictness,
	}
}

// Normalize clamps thresholds into their valid ranges.
func (t Thresholds) Normalize() Thresholds {
	if t.ConfidenceMin < 0 {
		t.ConfidenceMin = 0
	}
	if t.ConfidenceMin > 1 {
		t.ConfidenceMin = 1
	}
	if t.Strictness < 1 {
		t.Strictness = 1
	}
	if t.Strictness > WindowSize {
		t.Strictness = WindowSize
	}
	return t
}
