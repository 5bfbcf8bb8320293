// Package source reads evidence, quotes and benchmarks from the upstream
// extraction/storage service.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/benchmark"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/metrics"
)

// ErrUpstream wraps every failure of the upstream service.
var ErrUpstream = errors.New("upstream source error")

const (
	defaultTimeout = 5 * time.Second
	defaultBackoff = 100 * time.Millisecond
	maxBodyBytes   = 8 << 20
)

// Client is an HTTP client for the upstream service.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(cl *Client) {
		if n >= 0 {
			cl.retries = n
		}
	}
}

// WithBackoff sets the first retry delay. It doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.backoff = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", ErrUpstream, baseURL)
	}
	c := &Client{
		base:    u,
		http:    &http.Client{},
		timeout: defaultTimeout,
		retries: 2,
		backoff: defaultBackoff,
		logger:  logger.Get().Named("source"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Evidence fetches the evidence items of an organization.
func (c *Client) Evidence(ctx context.Context, orgID string) ([]model.EvidenceItem, error) {
	var items []model.EvidenceItem
	if _, err := c.get(ctx, "evidence", &items, "organizations", orgID, "evidence"); err != nil {
		return nil, err
	}
	return items, nil
}

// Quotes fetches the interview quotes of an organization.
func (c *Client) Quotes(ctx context.Context, orgID string) ([]model.Quote, error) {
	var quotes []model.Quote
	if _, err := c.get(ctx, "quotes", &quotes, "organizations", orgID, "quotes"); err != nil {
		return nil, err
	}
	return quotes, nil
}

// Benchmark fetches a distribution. A missing benchmark is nil, not an error.
// The upstream body may omit industry and size band; they come from the
// path. A body that fails validation is an upstream fault.
func (c *Client) Benchmark(ctx context.Context, industry, sizeBand string) (*model.Distribution, error) {
	var dist model.Distribution
	found, err := c.get(ctx, "benchmark", &dist, "benchmarks", industry, sizeBand)
	if err != nil || !found {
		return nil, err
	}
	if strings.TrimSpace(dist.Industry) == "" {
		dist.Industry = industry
	}
	if strings.TrimSpace(dist.SizeBand) == "" {
		dist.SizeBand = sizeBand
	}
	if err := benchmark.Validate(dist); err != nil {
		metrics.RecordErrorByComponent("source", "benchmark")
		return nil, fmt.Errorf("%w: benchmark %s/%s: %v", ErrUpstream, industry, sizeBand, err)
	}
	return &dist, nil
}

// get decodes the JSON body at base/segments into out. It reports false
// when the upstream answers 404.
func (c *Client) get(ctx context.Context, resource string, out any, segments ...string) (bool, error) {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	target := c.base.String() + "/" + strings.Join(escaped, "/")

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			c.logger.Warn(ctx, "retrying upstream request",
				logger.String("resource", resource),
				logger.Int("attempt", attempt),
				logger.Error(lastErr),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return false, fmt.Errorf("%w: %s: %w", ErrUpstream, resource, ctx.Err())
			}
		}

		found, retry, err := c.attempt(ctx, target, out)
		if err == nil {
			outcome := "ok"
			if !found {
				outcome = "not_found"
			}
			metrics.RecordSourceRequest(resource, outcome, float64(time.Since(start).Milliseconds()))
			return found, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	metrics.RecordSourceRequest(resource, "error", float64(time.Since(start).Milliseconds()))
	metrics.RecordErrorByComponent("source", resource)
	return false, fmt.Errorf("%w: %s: %w", ErrUpstream, resource, lastErr)
}

// attempt performs one request. retry reports whether the failure is transient.
func (c *Client) attempt(ctx context.Context, target string, out any) (found, retry bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return false, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, true, fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, false, fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return false, false, fmt.Errorf("decode: %w", err)
	}
	return true, false, nil
}
