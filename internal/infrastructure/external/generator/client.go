// Package generator implements the HTTP client for the external content
// generation service. Calls go through a retrier and a circuit breaker; when
// the service is down the command layer falls back to static content, so
// errors from this package are advisory rather than fatal.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/metrics"
	"github.com/compass-cohort/compass-engagement/pkg/circuitbreaker"
	"github.com/compass-cohort/compass-engagement/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the generator client.
type ClientConfig struct {
	// BaseURL is the generator service base URL.
	BaseURL string

	// APIKey authenticates requests (sent as a bearer token).
	APIKey string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxRetries is the number of attempts per call.
	MaxRetries int

	// RetryBaseDelay is the initial retry backoff.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the retry backoff.
	RetryMaxDelay time.Duration

	// BreakerThreshold is consecutive failures before the circuit opens.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// BreakerHalfOpenMax is the probe budget while half-open.
	BreakerHalfOpenMax int

	// Logger for structured logging.
	Logger *slog.Logger

	// Metrics records request outcomes when set.
	Metrics *metrics.Metrics
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:            baseURL,
		Timeout:            30 * time.Second,
		MaxRetries:         3,
		RetryBaseDelay:     500 * time.Millisecond,
		RetryMaxDelay:      10 * time.Second,
		BreakerThreshold:   5,
		BreakerTimeout:     60 * time.Second,
		BreakerHalfOpenMax: 3,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client calls the content generation service.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new generator client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	logger := config.Logger.With("client", "generator")

	breaker := circuitbreaker.New(
		"content-generator",
		circuitbreaker.WithFailureThreshold(config.BreakerThreshold),
		circuitbreaker.WithTimeout(config.BreakerTimeout),
		circuitbreaker.WithMaxHalfOpenRequests(config.BreakerHalfOpenMax),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
	)

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retrier: retry.New(
			retry.WithMaxAttempts(config.MaxRetries),
			retry.WithInitialDelay(config.RetryBaseDelay),
			retry.WithMaxDelay(config.RetryMaxDelay),
			retry.WithJitter(0.2),
		),
		breaker: breaker,
		logger:  logger,
		metrics: config.Metrics,
	}
}

// generateRequest is the wire format sent to the generator.
type generateRequest struct {
	ContentType string                   `json:"content_type"`
	Context     content.CommunityContext `json:"context"`
}

// generateResponse is the wire format returned by the generator.
type generateResponse struct {
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error,omitempty"`
}

// Generate produces a formatted payload for the given content type. It
// returns shared.ErrGeneratorUnavailable (wrapped) when the service cannot
// serve the request; the caller decides whether to fall back.
func (c *Client) Generate(ctx context.Context, contentType content.Type, cc content.CommunityContext) (json.RawMessage, error) {
	body, err := json.Marshal(generateRequest{
		ContentType: string(contentType),
		Context:     cc,
	})
	if err != nil {
		return nil, fmt.Errorf("generator: marshal request: %w", err)
	}

	var payload json.RawMessage

	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			p, err := c.doGenerate(ctx, body)
			if err != nil {
				return err
			}
			payload = p
			return nil
		})
	})
	if err != nil {
		c.recordOutcome("error")
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", shared.ErrGeneratorUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrGeneratorUnavailable, err)
	}

	c.recordOutcome("ok")
	return payload, nil
}

// doGenerate performs one HTTP attempt. Server-side and transport failures
// come back retryable; client errors are permanent.
func (c *Client) doGenerate(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, retry.Retryable(fmt.Errorf("generator status %d: %s", resp.StatusCode, respBody))
	default:
		return nil, retry.Permanent(fmt.Errorf("generator status %d: %s", resp.StatusCode, respBody))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, retry.Permanent(fmt.Errorf("parse response: %w", err))
	}
	if parsed.Error != "" {
		return nil, retry.Permanent(fmt.Errorf("generator error: %s", parsed.Error))
	}
	// A missing "payload" field decodes to the literal null, not a zero-length
	// RawMessage.
	if len(parsed.Payload) == 0 || bytes.Equal(bytes.TrimSpace(parsed.Payload), []byte("null")) {
		return nil, retry.Permanent(errors.New("generator returned empty payload"))
	}

	return parsed.Payload, nil
}

func (c *Client) recordOutcome(outcome string) {
	if c.metrics != nil {
		c.metrics.GeneratorRequests.WithLabelValues(outcome).Inc()
	}
}
