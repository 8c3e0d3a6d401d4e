package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/metrics"
)

const (
	kindText   = "text"
	kindVision = "vision"
)

var errNoResponse = errors.New("ollama returned no response")

// Compile-time checks.
var (
	_ domain.TextGenerator   = (*Client)(nil)
	_ domain.VisionGenerator = (*Client)(nil)
	_ domain.HealthChecker   = (*Client)(nil)
)

// Config holds the Ollama connection settings.
type Config struct {
	Host          string
	TextModel     string
	VisionModel   string
	TextTimeout   time.Duration
	VisionTimeout time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client talks to the native Ollama API (/api/generate, /api/tags) through the
// official api client.
type Client struct {
	api           *api.Client
	textModel     string
	visionModel   string
	textTimeout   time.Duration
	visionTimeout time.Duration
	logger        *zap.Logger
}

// NewClient creates an Ollama client. Zero timeouts default to 120s.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Host, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", cfg.Host, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama host %q must be an absolute URL", cfg.Host)
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	}
	httpClient.Transport = errorEnvelope{next: httpClient.Transport}

	c := &Client{
		api:           api.NewClient(base, httpClient),
		textModel:     cfg.TextModel,
		visionModel:   cfg.VisionModel,
		textTimeout:   cfg.TextTimeout,
		visionTimeout: cfg.VisionTimeout,
		logger:        cfg.Logger,
	}
	if c.textTimeout <= 0 {
		c.textTimeout = 120 * time.Second
	}
	if c.visionTimeout <= 0 {
		c.visionTimeout = 120 * time.Second
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// GenerateText runs a single non-streaming completion on the text model.
// Every failure wraps domain.ErrGenerationFailed.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.textTimeout)
	defer cancel()

	out, err := c.generate(ctx, kindText, &api.GenerateRequest{Model: c.textModel, Prompt: prompt})
	if err != nil {
		var status api.StatusError
		if errors.As(err, &status) {
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed,
				domain.NewUpstreamError("Ollama text request", status.StatusCode, status.ErrorMessage))
		}
		return "", fmt.Errorf("call ollama: %w: %w", err, domain.ErrGenerationFailed)
	}
	return out, nil
}

// GenerateFromImage sends the image with the prompt to the vision model.
// A non-2xx answer yields *domain.UpstreamError; a failed call wraps domain.ErrTransport.
func (c *Client) GenerateFromImage(
	ctx context.Context, prompt string, image []byte, opts domain.GenerateOptions,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.visionTimeout)
	defer cancel()

	out, err := c.generate(ctx, kindVision, &api.GenerateRequest{
		Model:   c.visionModel,
		Prompt:  prompt,
		Images:  []api.ImageData{image},
		Options: map[string]any{"temperature": opts.Temperature},
	})
	if err != nil {
		var status api.StatusError
		if errors.As(err, &status) {
			return "", domain.NewUpstreamError("Ollama vision request", status.StatusCode, status.ErrorMessage)
		}
		return "", fmt.Errorf("failed to call Ollama: %w: %w", err, domain.ErrTransport)
	}
	return out, nil
}

// generate posts a non-streaming request to /api/generate and records its outcome.
func (c *Client) generate(ctx context.Context, kind string, req *api.GenerateRequest) (string, error) {
	stream := false
	req.Stream = &stream

	var (
		out  strings.Builder
		done bool
	)
	start := time.Now()
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		done = done || resp.Done
		return nil
	})
	duration := time.Since(start)
	metrics.GenerationRequestDuration.WithLabelValues(req.Model, kind).Observe(duration.Seconds())

	if err == nil && !done {
		err = errNoResponse
	}
	if err != nil {
		var status api.StatusError
		errType := "transport"
		if errors.As(err, &status) {
			errType = "status_" + strconv.Itoa(status.StatusCode)
			c.logger.Warn("Ollama rejected generate request",
				zap.String("model", req.Model),
				zap.String("kind", kind),
				zap.Int("status", status.StatusCode),
				zap.Duration("duration", duration),
			)
		} else if errors.Is(err, errNoResponse) {
			errType = "decode"
		}
		metrics.GenerationRequestsTotal.WithLabelValues(req.Model, kind, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(req.Model, kind, errType).Inc()
		return "", err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(req.Model, kind, "success").Inc()
	c.logger.Debug("Ollama generate completed",
		zap.String("model", req.Model),
		zap.String("kind", kind),
		zap.Int("response_len", out.Len()),
		zap.Duration("duration", duration),
	)
	return out.String(), nil
}

// HealthCheck verifies the Ollama server answers /api/tags.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.List(ctx); err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	return nil
}
