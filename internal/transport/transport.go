// Package transport performs the HTTP round trips of the console.
//
// Every backend response body is an envelope, whatever the HTTP status code,
// so Do only returns an error when no envelope could be obtained. Callers
// classify the envelope themselves.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/rconsole/internal/endpoint"
	"github.com/roach88/rconsole/internal/model"
)

// DefaultTimeout bounds every round trip unless overridden.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 32 << 20

// Request is one call against the backend.
type Request struct {
	Method string
	// BaseURL is the scheme and host the target path is appended to.
	BaseURL string
	Target  endpoint.Target
	Body    []byte
}

// URL returns the absolute request URL.
func (r Request) URL() string {
	return r.BaseURL + r.Target.Path
}

// Response is a decoded envelope plus the metadata of the exchange.
type Response struct {
	Envelope   model.Envelope
	HTTPStatus int
	RequestID  string
}

// Doer is the interface the core depends on.
type Doer interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// Client is the HTTP implementation of Doer.
type Client struct {
	hc     *http.Client
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

// WithIDGenerator sets the X-Request-ID source.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Client) {
		c.ids = g
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client with a 15s timeout and UUIDv7 request ids.
func New(opts ...Option) *Client {
	c := &Client{
		hc:     &http.Client{Timeout: DefaultTimeout},
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req and decodes the envelope.
//
// Errors wrap ErrNetwork when the exchange failed and ErrParse when the body
// is not an envelope.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	id := c.ids.Generate()
	url := req.URL()
	fail := func(kind, err error) (Response, error) {
		return Response{RequestID: id}, &Error{Kind: kind, Method: req.Method, URL: url, RequestID: id, Err: err}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return fail(ErrNetwork, err)
	}
	req.Target.Authorize(hreq.Header)
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("X-Request-ID", id)
	if req.Body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(hreq)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "path", req.Target.Path, "request_id", id, "error", err)
		return fail(ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fail(ErrNetwork, fmt.Errorf("read body: %w", err))
	}

	c.logger.Debug("request completed",
		"method", req.Method,
		"path", req.Target.Path,
		"request_id", id,
		"http_status", resp.StatusCode,
		"elapsed", time.Since(start))

	env, err := decodeEnvelope(raw)
	if err != nil {
		return fail(ErrParse, err)
	}
	if env.Status == 0 {
		env.Status = resp.StatusCode
	}

	return Response{Envelope: env, HTTPStatus: resp.StatusCode, RequestID: id}, nil
}

func decodeEnvelope(raw []byte) (model.Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.Envelope{}, fmt.Errorf("body is not a JSON object")
	}
	var env model.Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return model.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
