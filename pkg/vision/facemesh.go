package vision

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Face-mesh landmark indices for the inner lips (MediaPipe topology).
const (
	upperLipIndex = 13
	lowerLipIndex = 14
	meshPoints    = 468
)

// Config holds face-mesh provider configuration.
type Config struct {
	FaceModelPath    string  // Path to YuNet face detection ONNX model
	MeshModelPath    string  // Path to face-mesh landmark ONNX model
	ConfidenceThresh float64 // Minimum face detection confidence
	MeshInputSize    int     // Landmark model input size (square)
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		FaceModelPath:    "models/face_detection_yunet.onnx",
		MeshModelPath:    "models/face_landmarks.onnx",
		ConfidenceThresh: 0.5,
		MeshInputSize:    192,
	}
}

// FaceMesh is a two-stage lip-landmark provider: YuNet locates the face,
// then a face-mesh network regresses the landmark set inside the crop.
type FaceMesh struct {
	detector gocv.FaceDetectorYN
	mesh     gocv.Net
	config   Config
	mu       sync.Mutex // Protects inference
}

// NewFaceMesh creates the provider. Both model files must exist.
func NewFaceMesh(cfg Config) (*FaceMesh, error) {
	for _, path := range []string{cfg.FaceModelPath, cfg.MeshModelPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("model file not found: %s", path)
		}
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.FaceModelPath,
		"",
		image.Pt(320, 320),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	mesh := gocv.ReadNetFromONNX(cfg.MeshModelPath)

	return &FaceMesh{
		detector: detector,
		mesh:     mesh,
		config:   cfg,
	}, nil
}

// DetectLips finds the lip landmarks of at most one face in the frame.
func (f *FaceMesh) DetectLips(jpeg []byte) (LipLandmarks, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return LipLandmarks{}, false, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return LipLandmarks{}, false, fmt.Errorf("empty image")
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	f.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	f.detector.Detect(img, &faces)

	if faces.Rows() == 0 {
		return LipLandmarks{}, false, nil
	}

	// Single-participant monitoring: take the first face.
	// YuNet rows are x, y, w, h in pixels followed by landmarks and score.
	fx := float64(faces.GetFloatAt(0, 0))
	fy := float64(faces.GetFloatAt(0, 1))
	fw := float64(faces.GetFloatAt(0, 2))
	fh := float64(faces.GetFloatAt(0, 3))

	rect := clampRect(image.Rect(int(fx), int(fy), int(fx+fw), int(fy+fh)), img.Cols(), img.Rows())
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return LipLandmarks{}, false, nil
	}

	crop := img.Region(rect)
	defer crop.Close()

	size := f.config.MeshInputSize
	blob := gocv.BlobFromImage(crop, 1.0/255.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	f.mesh.SetInput(blob, "")
	out := f.mesh.Forward("")
	defer out.Close()

	upper, err := meshPoint(out, upperLipIndex)
	if err != nil {
		return LipLandmarks{}, false, err
	}
	lower, err := meshPoint(out, lowerLipIndex)
	if err != nil {
		return LipLandmarks{}, false, err
	}

	// Crop-relative model coordinates back to full-frame normalized.
	scale := float64(size)
	lips := LipLandmarks{
		UpperLip: Point{
			X: (float64(rect.Min.X) + upper.X/scale*float64(rect.Dx())) / imgW,
			Y: (float64(rect.Min.Y) + upper.Y/scale*float64(rect.Dy())) / imgH,
		},
		LowerLip: Point{
			X: (float64(rect.Min.X) + lower.X/scale*float64(rect.Dx())) / imgW,
			Y: (float64(rect.Min.Y) + lower.Y/scale*float64(rect.Dy())) / imgH,
		},
	}

	return lips, true, nil
}

// Close releases the detector and network resources.
func (f *FaceMesh) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detector.Close()
	return f.mesh.Close()
}

// meshPoint reads landmark i from the flat 468-point (x, y, z) output tensor.
func meshPoint(out gocv.Mat, i int) (Point, error) {
	if i >= meshPoints {
		return Point{}, fmt.Errorf("landmark index %d out of range", i)
	}
	flat := out.Reshape(1, 1)
	defer flat.Close()

	return Point{
		X: float64(flat.GetFloatAt(0, i*3)),
		Y: float64(flat.GetFloatAt(0, i*3+1)),
	}, nil
}

func clampRect(r image.Rectangle, w, h int) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, w, h))
}
