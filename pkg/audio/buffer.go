package audio

import "sync"

// CaptureBuffer is a rolling buffer of resampled capture audio shared
// between the capture callback (writer) and the sampling loop (reader).
// It holds up to 5 classification windows and trims back to 2 when it
// overflows, so the reader always sees the freshest audio.
type CaptureBuffer struct {
	mu         sync.Mutex
	samples    []int16
	windowSize int
}

// NewCaptureBuffer creates a buffer for the given classification window
// size (in samples).
func NewCaptureBuffer(windowSize int) *CaptureBuffer {
	return &CaptureBuffer{windowSize: windowSize}
}

// Append adds captured samples, trimming old audio past 5 windows.
func (b *CaptureBuffer) Append(samples []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, samples...)
	if max := b.windowSize * 5; len(b.samples) > max {
		keep := b.windowSize * 2
		b.samples = append(b.samples[:0], b.samples[len(b.samples)-keep:]...)
	}
}

// Window returns a copy of the most recent classification window, or
// ok=false if not enough audio has accumulated yet.
func (b *CaptureBuffer) Window() ([]int16, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.samples) < b.windowSize {
		return nil, false
	}
	out := make([]int16, b.windowSize)
	copy(out, b.samples[len(b.samples)-b.windowSize:])
	return out, true
}

// Len returns the number of buffered samples.
func (b *CaptureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}
