// Package upstream extracts raw building records from the inventory HTTP API.
package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
	"github.com/couchcryptid/building-energy-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// maxPayloadBytes bounds how much of a response body is read.
const maxPayloadBytes = 32 << 20

// Client implements pipeline.Extractor against an HTTP endpoint returning a
// JSON batch of raw building records.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an upstream client. Every extract is bounded by timeout.
// A nil clock uses the real clock for request timings.
func NewClient(url string, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		url:     url,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Extract fetches and decodes the batch. Any failure, including the timeout,
// is reported as domain.ErrSourceUnavailable.
func (c *Client) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock.Now()
	records, err := c.fetch(ctx)
	c.metrics.UpstreamDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		c.logger.Warn("upstream extract failed", "url", c.url, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	return records, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream API error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return domain.DecodeRawBatch(data)
}
