package audio

import (
	"context"
	"io"
	"math"
	"sync"
	"time"

	"github.com/jaehyun-p/overwatch/internal/log"
)

// Pump drains a capture source into the rolling buffer, resampling each
// chunk to the classifier's rate. It returns when the source's stream
// closes or ctx is canceled.
func Pump(ctx context.Context, src Source, buf *CaptureBuffer, targetRate int) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-src.Stream():
			if !ok {
				return io.EOF
			}
			buf.Append(Resample(chunk.Samples, chunk.SampleRate, targetRate))
		}
	}
}

// DeviceSource captures mono PCM16 from the default input device. The
// device read is injectable; the default produces silence until a platform
// binding is wired in.
// TODO: bind a pure Go ALSA/CoreAudio capture implementation.
type DeviceSource struct {
	rate      int
	bufferDur time.Duration

	// ReadChunk fills one capture buffer of n samples. Set before Start.
	ReadChunk func(n int) []int16

	mu       sync.Mutex
	running  bool
	streamCh chan Chunk
	stopCh   chan struct{}
}

// NewDeviceSource creates a device source capturing at rate Hz in chunks
// of bufferDur.
func NewDeviceSource(rate int, bufferDur time.Duration) *DeviceSource {
	if bufferDur <= 0 {
		bufferDur = 50 * time.Millisecond
	}
	return &DeviceSource{rate: rate, bufferDur: bufferDur}
}

// Start begins capture.
func (s *DeviceSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.running = true
	s.streamCh = make(chan Chunk, 10)
	s.stopCh = make(chan struct{})

	go s.captureLoop(ctx)

	log.Info("audio capture started", "rate", s.rate, "buffer", s.bufferDur)
	return nil
}

func (s *DeviceSource) captureLoop(ctx context.Context) {
	// Closing here, not in Stop, keeps the close on the sending side.
	defer close(s.streamCh)

	ticker := time.NewTicker(s.bufferDur)
	defer ticker.Stop()

	n := s.rate * int(s.bufferDur) / int(time.Second)

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			samples := make([]int16, n)
			if s.ReadChunk != nil {
				samples = s.ReadChunk(n)
			}
			select {
			case s.streamCh <- Chunk{Samples: samples, SampleRate: s.rate}:
			default:
				log.Debug("audio capture: buffer full, dropping chunk")
			}
		}
	}
}

// Stop halts capture. Safe to call multiple times.
func (s *DeviceSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)
	return nil
}

// Stream returns the captured chunk channel. Closed on stop.
func (s *DeviceSource) Stream() <-chan Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamCh
}

// SampleRate returns the capture rate.
func (s *DeviceSource) SampleRate() int { return s.rate }

// SineSource generates a test tone, for exercising the capture path
// without hardware.
type SineSource struct {
	rate      int
	frequency float64
	amplitude float64
	bufferDur time.Duration

	mu       sync.Mutex
	running  bool
	phase    float64
	streamCh chan Chunk
	stopCh   chan struct{}
}

// NewSineSource creates a tone generator at rate Hz.
func NewSineSource(rate int, frequency, amplitude float64, bufferDur time.Duration) *SineSource {
	if bufferDur <= 0 {
		bufferDur = 50 * time.Millisecond
	}
	return &SineSource{
		rate:      rate,
		frequency: frequency,
		amplitude: amplitude,
		bufferDur: bufferDur,
	}
}

// Start begins tone generation.
func (s *SineSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.running = true
	s.streamCh = make(chan Chunk, 10)
	s.stopCh = make(chan struct{})

	go s.generateLoop(ctx)
	return nil
}

func (s *SineSource) generateLoop(ctx context.Context) {
	defer close(s.streamCh)

	ticker := time.NewTicker(s.bufferDur)
	defer ticker.Stop()

	n := s.rate * int(s.bufferDur) / int(time.Second)

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			select {
			case s.streamCh <- Chunk{Samples: s.generate(n), SampleRate: s.rate}:
			default:
			}
		}
	}
}

func (s *SineSource) generate(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		v := s.amplitude * math.Sin(2*math.Pi*s.frequency*s.phase/float64(s.rate))
		samples[i] = int16(v * 32767)
		s.phase++
		if s.phase >= float64(s.rate) {
			s.phase = 0
		}
	}
	return samples
}

// Stop halts generation. Safe to call multiple times.
func (s *SineSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)
	return nil
}

// Stream returns the generated chunk channel. Closed on stop.
func (s *SineSource) Stream() <-chan Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamCh
}

// SampleRate returns the generation rate.
func (s *SineSource) SampleRate() int { return s.rate }
