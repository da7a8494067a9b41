// Package camera provides webcam frame capture for the participant
// monitor.
package camera

// Config holds the capture parameters.
type Config struct {
	// DeviceID selects the capture device (0 is the default webcam).
	DeviceID int `json:"device_id"`

	// Width and Height request a capture resolution. The lip landmarks are
	// normalized, so a modest resolution is enough.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Quality is the JPEG encode quality 1-100.
	Quality int `json:"quality"`
}

// DefaultConfig returns the recommended capture configuration.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    640,
		Height:   480,
		Quality:  85,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 160 || c.Width > 3840 {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > 2160 {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
