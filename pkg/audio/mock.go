package audio

import (
	"context"
	"sync"
)

// MockClassifier is a scripted classifier for tests. Results are returned
// in order; the last result repeats once the script is exhausted.
type MockClassifier struct {
	mu      sync.Mutex
	results []MockResult
	pos     int
	calls   int

	inputSize  int
	sampleRate int
}

// MockResult is one scripted classification outcome.
type MockResult struct {
	Labels []Label
	Err    error
}

// NewMockClassifier creates a mock with a 16 kHz, 1 s window model shape.
func NewMockClassifier(results ...MockResult) *MockClassifier {
	return &MockClassifier{
		results:    results,
		inputSize:  16000,
		sampleRate: 16000,
	}
}

// Classify returns the next scripted result.
func (m *MockClassifier) Classify(_ context.Context, _ []int16) ([]Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.results) == 0 {
		return nil, nil
	}
	r := m.results[m.pos]
	if m.pos < len(m.results)-1 {
		m.pos++
	}
	return r.Labels, r.Err
}

// Calls returns how many classifications were requested.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// InputSize returns the mock window size.
func (m *MockClassifier) InputSize() int { return m.inputSize }

// SampleRate returns the mock sample rate.
func (m *MockClassifier) SampleRate() int { return m.sampleRate }

// Close is a no-op.
func (m *MockClassifier) Close() error { return nil }
