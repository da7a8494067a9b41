package monitor

import (
	"time"

	"github.com/jaehyun-p/overwatch/pkg/fusion"
)

// Config holds the tunable parameters for one participant's monitor.
type Config struct {
	// Timing
	SampleInterval time.Duration // How often to take a joint observation
	EpisodeGap     time.Duration // Silence gap that splits two episodes

	// Decision thresholds (runtime-tunable via SetThresholds)
	Thresholds fusion.Thresholds

	// Display
	LiveLogSize int // How many recent tick logs to retain for the live view
}

// DefaultConfig returns the recommended monitoring configuration.
func DefaultConfig() Config {
	return Config{
		SampleInterval: 250 * time.Millisecond, // 4 decisions per second
		EpisodeGap:     fusion.DefaultEpisodeGap,
		Thresholds:     fusion.DefaultThresholds(),
		LiveLogSize:    10,
	}
}
