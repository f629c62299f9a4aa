// Package daemon is the HTTP/SSE client for the guild daemon. Every network
// failure that means "the daemon process is not there" collapses into the
// single sentinel ErrUnavailable, so callers apply one rule instead of
// re-implementing socket-error detection at each call site.
package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable signals the daemon process could not be reached at all.
// A response from the daemon, whatever its status code, is never this error.
var ErrUnavailable = errors.New("daemon: not reachable")

// DefaultCallTimeout bounds non-streaming daemon calls.
const DefaultCallTimeout = 30 * time.Second

// Client issues requests against the daemon's base URL. Call is for
// single-document endpoints; Stream is for endpoints that answer with an
// incrementally produced event stream.
type Client struct {
	baseURL string
	calls   *http.Client
	streams *http.Client
}

// Option customizes client construction.
type Option func(*Client)

// WithCallTimeout overrides the timeout applied to non-streaming calls.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.calls.Timeout = d
		}
	}
}

// WithTransport overrides the underlying round tripper, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.calls.Transport = rt
			c.streams.Transport = rt
		}
	}
}

// NewClient builds a client for the daemon at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		calls:   &http.Client{Timeout: DefaultCallTimeout},
		// Streams stay open for an entire agent turn; no client timeout.
		// Cancellation arrives through the request context instead.
		streams: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Call performs a request and returns whatever the daemon answered,
// including 4xx/5xx responses. Status interpretation is the caller's job.
func (c *Client) Call(ctx context.Context, method, path string, body any) (*http.Response, error) {
	return c.do(ctx, c.calls, method, path, body)
}

// Stream performs a request against a streaming endpoint. The response body
// is returned unread so bytes reach the caller as the daemon emits them;
// the caller owns the body and must close it.
func (c *Client) Stream(ctx context.Context, method, path string, body any) (*http.Response, error) {
	return c.do(ctx, c.streams, method, path, body)
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, body any) (*http.Response, error) {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("daemon: encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("daemon: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		// Caller-side cancellation is not the daemon's absence.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// Health probes the daemon and always produces a document: the daemon's own
// health payload when reachable, {"status":"offline"} when not. It never
// gates other operations; it only feeds status indicators.
func (c *Client) Health(ctx context.Context) map[string]any {
	resp, err := c.Call(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return map[string]any{"status": "offline"}
	}
	defer resp.Body.Close()
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil || doc == nil {
		return map[string]any{"status": "unknown"}
	}
	if _, ok := doc["status"]; !ok {
		doc["status"] = "ok"
	}
	return doc
}

// Online reports whether the last health probe found the daemon reachable.
func (c *Client) Online(ctx context.Context) bool {
	status, _ := c.Health(ctx)["status"].(string)
	return status != "offline"
}
