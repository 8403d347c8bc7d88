package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"beamdeck/internal/observability"
)

// Client is a thin JSON-over-HTTP wrapper around the mission backend.
type Client struct {
	baseURL   string
	http      *http.Client
	metrics   *observability.Metrics
	logger    *zap.Logger
	sessionID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout applies a per-request timeout. Zero leaves requests unbounded.
// The current *http.Client is copied, so a shared client is never mutated.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = timeout
		c.http = &hc
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a Client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:      &http.Client{},
		logger:    zap.NewNop(),
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionID identifies this client process in X-Client-Session headers.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Do issues one request and decodes the response into out (which may be nil).
//
// With a nil out only the status matters on success: any 2xx is accepted
// whatever the body holds. Otherwise the body is read in full as text and
// parsed as JSON before the status is considered. A body that is not JSON
// yields *NonJSONResponseError, and a JSON body with a non-2xx status yields
// *StatusError carrying its "detail".
func (c *Client) Do(ctx context.Context, op, method, path string, body any, out any) error {
	started := time.Now()
	outcome := "ok"
	defer func() {
		c.metrics.RecordRequest(op, outcome, time.Since(started))
	}()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			outcome = "encode_error"
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		outcome = "encode_error"
		return fmt.Errorf("build %s request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("X-Client-Session", c.sessionID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "transport_error"
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "transport_error"
		return fmt.Errorf("read %s response: %w", op, err)
	}
	text := string(raw)

	c.logger.Debug("backend response",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
	)

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if success && out == nil {
		return nil
	}

	var parsed json.RawMessage
	if err := json.Unmarshal(raw, &parsed); err != nil {
		outcome = "non_json"
		return &NonJSONResponseError{Status: resp.StatusCode, Snippet: snippet(text)}
	}

	if !success {
		outcome = "http_error"
		return &StatusError{Status: resp.StatusCode, Detail: extractDetail(parsed)}
	}

	if err := json.Unmarshal(parsed, out); err != nil {
		outcome = "decode_error"
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// extractDetail pulls the "detail" field from an error body. Non-string
// details (validation error lists) are returned as compact JSON.
func extractDetail(body json.RawMessage) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}
	if string(envelope.Detail) == "null" {
		return ""
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, envelope.Detail); err != nil {
		return string(envelope.Detail)
	}
	return compact.String()
}

// IsNonJSON reports whether err is a *NonJSONResponseError.
func IsNonJSON(err error) bool {
	var target *NonJSONResponseError
	return errors.As(err, &target)
}
