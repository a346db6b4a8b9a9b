// Package mailer implements the HTTP client for the transactional mail
// service used to deliver weekly engagement reports.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/metrics"
	"github.com/compass-cohort/compass-engagement/pkg/circuitbreaker"
	"github.com/compass-cohort/compass-engagement/pkg/retry"
)

// ClientConfig contains configuration for the mailer client.
type ClientConfig struct {
	// BaseURL is the mail service base URL.
	BaseURL string

	// From is the sender address on every message.
	From string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger

	// Metrics records send outcomes when set.
	Metrics *metrics.Metrics
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL, from string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		From:    from,
		Timeout: 15 * time.Second,
	}
}

// Client sends email through the mail service.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new mailer client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	logger := config.Logger.With("client", "mailer")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retrier: retry.MailerRetrier(),
		breaker: circuitbreaker.MailerBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
		logger:  logger,
		metrics: config.Metrics,
	}
}

// sendRequest is the wire format for one message.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Send delivers one plain-text message. Failures come back wrapped in
// shared.ErrMailerFailed after retries are exhausted.
func (c *Client) Send(ctx context.Context, to []string, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		From:    c.config.From,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("mailer: marshal request: %w", err)
	}

	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doSend(ctx, payload)
		})
	})
	if err != nil {
		c.recordOutcome("error")
		return fmt.Errorf("%w: %v", shared.ErrMailerFailed, err)
	}

	c.recordOutcome("ok")
	return nil
}

func (c *Client) doSend(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/send", bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return retry.Retryable(fmt.Errorf("mailer status %d: %s", resp.StatusCode, respBody))
	}
	return retry.Permanent(fmt.Errorf("mailer status %d: %s", resp.StatusCode, respBody))
}

func (c *Client) recordOutcome(outcome string) {
	if c.metrics != nil {
		c.metrics.MailerSends.WithLabelValues(outcome).Inc()
	}
}
