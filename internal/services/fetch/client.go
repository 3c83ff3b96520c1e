// Package fetch is the JSON-over-HTTP client used by route-bound dialogs and
// by the host screen. It speaks the envelope format served by internal/server.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/riordanpawley/routedialog/internal/domain"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes int64 = 1 << 20

// Client performs JSON GET and POST requests
type Client struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
	logger       *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the overall per-request timeout of the underlying http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithMaxBodyBytes caps the response body size
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header on every request
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new JSON client
func NewClient(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET with Accept: application/json and returns the raw JSON body
func (c *Client) GetJSON(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.NetworkError{Op: "load", URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, "load")
}

// PostJSON issues a POST whose body is the JSON encoding of body and returns
// the raw JSON response
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &domain.ParseError{Op: "submit", URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.NetworkError{Op: "submit", URL: rawURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, "submit")
}

func (c *Client) do(req *http.Request, op string) (json.RawMessage, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	target := req.URL.String()
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &domain.NetworkError{Op: op, URL: target, Err: errors.Wrap(err, "read body")}
	}

	c.logger.Debug("http request",
		"method", req.Method,
		"url", target,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	if int64(len(data)) > c.maxBodyBytes {
		return nil, &domain.ParseError{
			Op:  op,
			URL: target,
			Err: errors.Errorf("response body exceeds %d bytes", c.maxBodyBytes),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(op, target, resp.StatusCode, data)
	}

	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &domain.ParseError{Op: op, URL: target, Err: err}
	}

	return json.RawMessage(data), nil
}

// errorEnvelope mirrors the JSON error body written by internal/server
type errorEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func statusError(op, target string, status int, body []byte) *domain.StatusError {
	e := &domain.StatusError{Op: op, URL: target, Status: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		e.Message = env.Message
		e.Code = env.Code
		return e
	}

	e.Message = http.StatusText(status)
	return e
}

// Resolve joins a route path such as "/dialog/42" onto a base URL
func Resolve(baseURL, ref string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse base url %q", baseURL)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "parse path %q", ref)
	}
	return base.ResolveReference(rel).String(), nil
}
