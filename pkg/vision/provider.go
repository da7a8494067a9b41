// Package vision provides lip-landmark extraction for the fusion engine.
// The engine only needs two named points per frame: the upper and lower lip
// in normalized frame coordinates.
package vision

// Point is a normalized 2D frame coordinate (0-1).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LipLandmarks holds the two lip points the fusion engine consumes.
type LipLandmarks struct {
	UpperLip Point `json:"upper_lip"`
	LowerLip Point `json:"lower_lip"`
}

// Gap returns the normalized vertical mouth aperture.
func (l LipLandmarks) Gap() float64 {
	return l.LowerLip.Y - l.UpperLip.Y
}

// Provider extracts lip landmarks from a video frame. Implementations
// return found=false when no face is visible; that is not an error.
type Provider interface {
	// DetectLips finds the lip landmarks of at most one face in the JPEG
	// frame.
	DetectLips(jpeg []byte) (lips LipLandmarks, found bool, err error)

	// Close releases resources.
	Close() error
}

// FrameSource captures video frames for the sampling loop.
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}
