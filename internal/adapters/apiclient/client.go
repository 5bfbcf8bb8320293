// Package apiclient is a client for the assessment HTTP API. It drives the
// intake, build and export endpoints for one or many build documents.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/mq/worker"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/evidence"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/render"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// Defaults.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

// idempotencyNamespace scopes content-derived Idempotency-Key values.
var idempotencyNamespace = uuid.MustParse("6f1c2b1e-9a57-4d0e-8f43-3f1f0f6b7a21")

// ErrJobFailed is returned when a polled job ends in the failed state.
var ErrJobFailed = errors.New("assessment job failed")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

// Backpressure reports whether the server rejected the call because its
// job queue is full.
func (e *APIError) Backpressure() bool { return e.Status == http.StatusTooManyRequests }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPollInterval sets how often job status is polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.poll = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client talks to one assessment API base URL.
type Client struct {
	base   string
	http   *http.Client
	poll   time.Duration
	logger logger.Logger
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", baseURL)
	}
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: DefaultTimeout},
		poll:   DefaultPollInterval,
		logger: logger.Get().Named("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PutProfile creates or replaces a subject profile.
func (c *Client) PutProfile(ctx context.Context, subj model.Subject) (model.Subject, error) {
	body := map[string]any{"name": subj.Name, "kind": subj.Kind, "industry": subj.Industry, "sizeBand": subj.SizeBand}
	var out model.Subject
	err := c.do(ctx, http.MethodPut, c.orgPath(subj.ID, ""), body, "", &out)
	return out, err
}

// AddEvidence posts an evidence batch. The Idempotency-Key is derived from
// the batch, so a resubmission of the same batch is acknowledged as a
// duplicate by the server.
func (c *Client) AddEvidence(ctx context.Context, subjectID string, items []model.EvidenceItem) (evidence.AddResult, error) {
	var out evidence.AddResult
	err := c.do(ctx, http.MethodPost, c.orgPath(subjectID, "evidence"), items, contentKey(items), &out)
	return out, err
}

// AddQuotes posts interview quotes and returns how many were stored.
func (c *Client) AddQuotes(ctx context.Context, subjectID string, quotes []model.Quote) (int, error) {
	var out struct {
		Accepted int `json:"accepted"`
	}
	err := c.do(ctx, http.MethodPost, c.orgPath(subjectID, "quotes"), quotes, contentKey(quotes), &out)
	return out.Accepted, err
}

// SetPerceptions replaces the self-rated scores of a subject.
func (c *Client) SetPerceptions(ctx context.Context, subjectID string, perceived map[model.DimensionID]float64) error {
	return c.do(ctx, http.MethodPut, c.orgPath(subjectID, "perceptions"), perceived, "", nil)
}

// PutBenchmark upserts a benchmark distribution.
func (c *Client) PutBenchmark(ctx context.Context, dist model.Distribution) error {
	path := "/benchmarks/" + url.PathEscape(dist.Industry) + "/" + url.PathEscape(dist.SizeBand)
	body := map[string]any{"mean": dist.Mean, "percentiles": dist.Percentiles}
	return c.do(ctx, http.MethodPut, path, body, "", nil)
}

// RequestAssessment queues a build and returns its job id.
func (c *Client) RequestAssessment(ctx context.Context, subjectID string) (string, error) {
	var out struct {
		JobID string `json:"jobId"`
	}
	if err := c.do(ctx, http.MethodPost, c.orgPath(subjectID, "assessments"), nil, "", &out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// Job returns the status of a job.
func (c *Client) Job(ctx context.Context, jobID string) (worker.JobStatus, error) {
	var out worker.JobStatus
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, "", &out)
	return out, err
}

// WaitJob polls a job until it is done or failed, or ctx ends.
func (c *Client) WaitJob(ctx context.Context, jobID string) (worker.JobStatus, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		st, err := c.Job(ctx, jobID)
		if err != nil {
			return st, err
		}
		switch st.State {
		case worker.JobDone:
			return st, nil
		case worker.JobFailed:
			return st, fmt.Errorf("%w: %s", ErrJobFailed, st.Error)
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Report downloads the latest report of a subject in format f.
func (c *Client) Report(ctx context.Context, subjectID string, f render.Format) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.orgPath(subjectID, "report")+"?format="+string(f), nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) orgPath(id, sub string) string {
	p := "/organizations/" + url.PathEscape(id)
	if sub != "" {
		p += "/" + sub
	}
	return p
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, idemKey string) (*http.Request, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, idemKey string, out any) error {
	req, err := c.newRequest(ctx, method, path, body, idemKey)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.logger.Debug(ctx, "api call",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	// A replayed Idempotency-Key answers with an ack instead of the payload.
	var ack struct {
		Duplicate bool `json:"duplicate"`
	}
	if json.Unmarshal(raw, &ack) == nil && ack.Duplicate {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "http_error"
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

// contentKey derives a stable Idempotency-Key from a JSON-encodable value.
func contentKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return uuid.NewSHA1(idempotencyNamespace, b).String()
}
