package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jaehyun-p/overwatch/internal/httpc"
)

// Sentinel errors for common conditions.
var (
	// ErrNotInitialized is returned when Classify is called before Init.
	ErrNotInitialized = errors.New("audio: classifier not initialized")

	// ErrWindowTooShort is returned when fewer samples than InputSize are given.
	ErrWindowTooShort = errors.New("audio: window shorter than classifier input size")
)

// APIError represents an error response from the classifier service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("audio: classifier API error %d: %s", e.StatusCode, e.Message)
}

// ClientConfig holds HTTP classifier configuration.
type ClientConfig struct {
	// BaseURL of the classifier service, e.g. "http://localhost:1337/v1".
	BaseURL string

	// Timeout per classification request. Must stay well under the
	// sampling interval.
	Timeout time.Duration

	// InitTimeout bounds the startup poll for the model properties.
	InitTimeout time.Duration

	// Logger for request diagnostics.
	Logger *slog.Logger
}

// DefaultClientConfig returns production defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:     "http://localhost:1337/v1",
		Timeout:     5 * time.Second,
		InitTimeout: 10 * time.Second,
		Logger:      slog.Default(),
	}
}

// Client is an HTTP-based language classifier. It speaks the impulse
// runner's REST surface: GET /properties for the model parameters and
// POST /classify for one window of features.
type Client struct {
	baseURL string
	config  ClientConfig
	http    *http.Client
	logger  *slog.Logger

	// Model properties, fetched once by Init.
	frequency  int
	inputSize  int
	ready      bool
}

// NewClient creates an HTTP classifier client. Call Init before Classify.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		config:  cfg,
		http:    httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "audio.client"),
	}
}

type propertiesResponse struct {
	Frequency          int `json:"frequency"`
	InputFeaturesCount int `json:"input_features_count"`
}

// Init polls the classifier's properties until it answers or the init
// window elapses. Initialization failure is fatal to starting monitoring;
// the caller surfaces it as a distinct status.
func (c *Client) Init(ctx context.Context) error {
	deadline := time.Now().Add(c.config.InitTimeout)

	var lastErr error
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		props, err := c.fetchProperties(ctx)
		if err == nil {
			c.frequency = props.Frequency
			c.inputSize = props.InputFeaturesCount
			c.ready = true
			c.logger.Info("classifier ready",
				"frequency", c.frequency, "input_size", c.inputSize)
			return nil
		}
		lastErr = err
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("audio: classifier unavailable after %s: %w",
		c.config.InitTimeout, lastErr)
}

func (c *Client) fetchProperties(ctx context.Context) (*propertiesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/properties", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var props propertiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&props); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	if props.Frequency <= 0 || props.InputFeaturesCount <= 0 {
		return nil, fmt.Errorf("invalid model properties: %+v", props)
	}
	return &props, nil
}

type classifyRequest struct {
	Features []float32 `json:"features"`
}

type classifyResponse struct {
	Results []Label `json:"results"`
}

// Classify scores the most recent window of samples. The window must hold
// at least InputSize samples; only the trailing InputSize are sent.
func (c *Client) Classify(ctx context.Context, pcm []int16) ([]Label, error) {
	if !c.ready {
		return nil, ErrNotInitialized
	}
	if len(pcm) < c.inputSize {
		return nil, ErrWindowTooShort
	}

	window := pcm[len(pcm)-c.inputSize:]
	features := make([]float32, len(window))
	for i, s := range window {
		features[i] = float32(s) / 32768.0
	}

	body, err := json.Marshal(classifyRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Results, nil
}

// InputSize returns the samples per classification window.
func (c *Client) InputSize() int { return c.inputSize }

// SampleRate returns the sample rate the model expects.
func (c *Client) SampleRate() int { return c.frequency }

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
