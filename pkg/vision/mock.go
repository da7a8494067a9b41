package vision

import "sync"

// MockProvider is a scripted lip-landmark provider for tests. Results are
// returned in order; the last result repeats once the script is exhausted.
type MockProvider struct {
	mu      sync.Mutex
	results []MockResult
	pos     int
	calls   int
}

// MockResult is one scripted detection outcome.
type MockResult struct {
	Lips  LipLandmarks
	Found bool
	Err   error
}

// NewMock creates a mock provider with the given script.
func NewMock(results ...MockResult) *MockProvider {
	return &MockProvider{results: results}
}

// LipsWithGap builds landmarks producing the given normalized mouth gap.
func LipsWithGap(gap float64) LipLandmarks {
	return LipLandmarks{
		UpperLip: Point{X: 0.5, Y: 0.6},
		LowerLip: Point{X: 0.5, Y: 0.6 + gap},
	}
}

// DetectLips returns the next scripted result.
func (m *MockProvider) DetectLips(_ []byte) (LipLandmarks, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.results) == 0 {
		return LipLandmarks{}, false, nil
	}
	r := m.results[m.pos]
	if m.pos < len(m.results)-1 {
		m.pos++
	}
	return r.Lips, r.Found, r.Err
}

// Calls returns how many detections were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op.
func (m *MockProvider) Close() error { return nil }
