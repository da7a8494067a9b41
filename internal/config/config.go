// Package config provides the configuration schema and YAML loader for the
// overwatch binaries.
package config

import (
	"time"

	"github.com/jaehyun-p/overwatch/pkg/fusion"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Participant ParticipantConfig `yaml:"participant"`
	Vision      VisionConfig      `yaml:"vision"`
	Audio       AudioConfig       `yaml:"audio"`
	Monitor     MonitorConfig     `yaml:"monitor"`
}

// ServerConfig holds network and logging settings for the dashboard server.
type ServerConfig struct {
	// Port is the TCP port the dashboard server listens on.
	Port string `yaml:"port"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ParticipantConfig identifies the participant and the server to report to.
type ParticipantConfig struct {
	// Name is the participant's display name.
	Name string `yaml:"name"`

	// StudentID is the participant's student number. Together with Name it
	// forms the session key.
	StudentID string `yaml:"student_id"`

	// ServerURL is the participant websocket endpoint
	// (e.g., "ws://localhost:8080/ws/join").
	ServerURL string `yaml:"server_url"`
}

// VisionConfig holds the camera and lip-landmark model settings.
type VisionConfig struct {
	// DeviceID selects the capture device (0 is the default webcam).
	DeviceID int `yaml:"device_id"`

	// FaceModelPath is the path to the YuNet face detection model.
	FaceModelPath string `yaml:"face_model_path"`

	// MeshModelPath is the path to the face mesh ONNX model.
	MeshModelPath string `yaml:"mesh_model_path"`

	// ConfidenceThresh is the minimum face detection confidence (0-1).
	// Zero means the provider default.
	ConfidenceThresh float32 `yaml:"confidence_thresh"`
}

// AudioConfig holds the language classifier settings.
type AudioConfig struct {
	// BaseURL is the classifier HTTP endpoint
	// (e.g., "http://localhost:1337/v1").
	BaseURL string `yaml:"base_url"`

	// CaptureRate is the microphone capture rate in Hz. Audio is resampled
	// to the classifier's expected rate before inference.
	CaptureRate int `yaml:"capture_rate"`
}

// MonitorConfig holds the decision-loop parameters.
type MonitorConfig struct {
	// SampleIntervalMs is the sampling cadence in milliseconds.
	SampleIntervalMs int `yaml:"sample_interval_ms"`

	// EpisodeGapMs is the silence gap in milliseconds that splits two
	// violation episodes.
	EpisodeGapMs int `yaml:"episode_gap_ms"`

	// Thresholds are the decision thresholds in canonical units.
	Thresholds fusion.Thresholds `yaml:"thresholds"`
}

// SampleInterval returns the cadence as a duration.
func (m MonitorConfig) SampleInterval() time.Duration {
	return time.Duration(m.SampleIntervalMs) * time.Millisecond
}

// EpisodeGap returns the episode gap as a duration.
func (m MonitorConfig) EpisodeGap() time.Duration {
	return time.Duration(m.EpisodeGapMs) * time.Millisecond
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: LogInfo,
		},
		Participant: ParticipantConfig{
			ServerURL: "ws://localhost:8080/ws/join",
		},
		Vision: VisionConfig{
			DeviceID:      0,
			FaceModelPath: "models/face_detection_yunet.onnx",
			MeshModelPath: "models/face_mesh.onnx",
		},
		Audio: AudioConfig{
			BaseURL:     "http://localhost:1337/v1",
			CaptureRate: 44100,
		},
		Monitor: MonitorConfig{
			SampleIntervalMs: 250,
			EpisodeGapMs:     3000,
			Thresholds:       fusion.DefaultThresholds(),
		},
	}
}
