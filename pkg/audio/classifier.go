// Package audio provides the spoken-language classifier interface and the
// capture-side plumbing (resampling, rolling window) that feeds it.
package audio

import "context"

// Label is one (name, score) pair returned by the classifier.
type Label struct {
	Name  string  `json:"label"`
	Score float64 `json:"value"`
}

// Classifier scores a fixed-length PCM window against the known language
// labels. The fusion engine only consumes the top-scoring entry and expects
// labels including at least "korean", "english" and "noise"/"background".
type Classifier interface {
	// Classify scores one window of mono PCM16 samples at SampleRate.
	Classify(ctx context.Context, pcm []int16) ([]Label, error)

	// InputSize returns the number of samples per classification window.
	InputSize() int

	// SampleRate returns the sample rate the classifier expects.
	SampleRate() int

	// Close releases resources.
	Close() error
}

// TopLabel returns the maximum-score entry, or ok=false for an empty list.
func TopLabel(labels []Label) (Label, bool) {
	if len(labels) == 0 {
		return Label{}, false
	}
	top := labels[0]
	for _, l := range labels[1:] {
		if l.Score > top.Score {
			top = l
		}
	}
	return top, true
}

// Source captures mono PCM16 audio chunks from a microphone.
type Source interface {
	// Start begins capture; chunks are delivered on Stream.
	Start(ctx context.Context) error

	// Stop halts capture. Safe to call multiple times.
	Stop() error

	// Stream returns the channel of captured chunks. Closed on stop.
	Stream() <-chan Chunk

	// SampleRate returns the capture sample rate.
	SampleRate() int
}

// Chunk is one block of captured mono PCM16 audio.
type Chunk struct {
	Samples    []int16
	SampleRate int
}
