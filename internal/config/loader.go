package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jaehyun-p/overwatch/pkg/fusion"
)

// Load reads the YAML configuration file at path, merges it over the
// defaults, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Monitor.SampleIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("monitor.sample_interval_ms %d must be positive", cfg.Monitor.SampleIntervalMs))
	}
	if cfg.Monitor.EpisodeGapMs <= 0 {
		errs = append(errs, fmt.Errorf("monitor.episode_gap_ms %d must be positive", cfg.Monitor.EpisodeGapMs))
	}

	t := cfg.Monitor.Thresholds
	if t.ConfidenceMin < 0 || t.ConfidenceMin > 1 {
		errs = append(errs, fmt.Errorf("monitor.thresholds.confidence_min %.2f is out of range [0, 1]", t.ConfidenceMin))
	}
	if t.MouthOpenMin < 0 {
		errs = append(errs, fmt.Errorf("monitor.thresholds.mouth_open_min %.4f must not be negative", t.MouthOpenMin))
	}
	if t.LipMovementMin < 0 {
		errs = append(errs, fmt.Errorf("monitor.thresholds.lip_movement_min %.4f must not be negative", t.LipMovementMin))
	}
	if t.Strictness < 1 || t.Strictness > fusion.WindowSize {
		errs = append(errs, fmt.Errorf("monitor.thresholds.strictness %d is out of range [1, %d]", t.Strictness, fusion.WindowSize))
	}

	if cfg.Vision.ConfidenceThresh < 0 || cfg.Vision.ConfidenceThresh > 1 {
		errs = append(errs, fmt.Errorf("vision.confidence_thresh %.2f is out of range [0, 1]", cfg.Vision.ConfidenceThresh))
	}

	if cfg.Audio.CaptureRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.capture_rate %d must be positive", cfg.Audio.CaptureRate))
	}

	return errors.Join(errs...)
}
