package camera

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Webcam captures JPEG frames from a local video device. It satisfies the
// monitor's frame source; one sampling loop reads it at a time.
type Webcam struct {
	config Config

	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
}

// Open opens the configured capture device.
func Open(cfg Config) (*Webcam, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}

	capture, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	return &Webcam{
		config:  cfg,
		capture: capture,
		frame:   gocv.NewMat(),
	}, nil
}

// CaptureJPEG grabs one frame and returns it JPEG-encoded.
func (w *Webcam) CaptureJPEG() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture == nil {
		return nil, fmt.Errorf("camera: closed")
	}
	if ok := w.capture.Read(&w.frame); !ok || w.frame.Empty() {
		return nil, fmt.Errorf("camera: read frame from device %d", w.config.DeviceID)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.frame,
		[]int{gocv.IMWriteJpegQuality, w.config.Quality})
	if err != nil {
		return nil, fmt.Errorf("camera: encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture == nil {
		return nil
	}
	w.frame.Close()
	err := w.capture.Close()
	w.capture = nil
	return err
}
