// Package api is the HTTP client for the platform REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/retry"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

// TokenSource yields the bearer token for the next request.
type TokenSource func() (string, error)

// RequestObserver receives the outcome of every request.
type RequestObserver interface {
	ObserveRequest(method, status string, seconds float64)
}

// Client talks to the platform API. It is safe for concurrent use.
type Client struct {
	baseURL        string
	client         *http.Client
	tokens         TokenSource
	onUnauthorized func()
	retryPolicy    retry.Policy
	logger         zerolog.Logger
	observer       RequestObserver
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHook registers fn to run whenever the server answers 401.
// The CLI uses it to discard the stored session.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithRetry sets the retry policy applied to GET requests.
func WithRetry(p retry.Policy) Option {
	return func(c *Client) { c.retryPolicy = p }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithObserver sets the request observer (metrics).
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a Client for the API rooted at baseURL
// (e.g. "http://localhost:8080/api/v1").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: defaultTimeout},
		retryPolicy: retry.DefaultPolicy(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// errorBody is the error payload returned by the backend.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type requestOpts struct {
	anonymous bool
}

// doJSON sends one request. GETs are retried on transient failures.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, opts requestOpts) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: failed to encode request: %w", err)
		}
		payload = data
	}

	if method != http.MethodGet {
		return c.doOnce(ctx, method, path, payload, out, opts)
	}
	policy := c.retryPolicy
	onRetry := policy.OnRetry
	policy.OnRetry = func(a retry.Attempt) {
		c.logger.Info().Err(a.Err).
			Str("path", path).
			Int("attempt", a.N).
			Dur("delay", a.Delay).
			Msg("retrying read")
		if onRetry != nil {
			onRetry(a)
		}
	}
	return policy.Do(ctx, func(ctx context.Context) error {
		return c.doOnce(ctx, method, path, payload, out, opts)
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out any, opts requestOpts) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("api: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !opts.anonymous && c.tokens != nil {
		token, err := c.tokens()
		if err != nil {
			return fmt.Errorf("%w: not signed in (run 'roster auth login'): %v", domain.ErrUnauthorized, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(method, "error", start)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()
	c.observe(method, strconv.Itoa(resp.StatusCode), start)

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= 400 {
		return c.statusError(resp, opts)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("api: failed to decode response: %w", err)
	}
	return nil
}

// statusError maps an error response to a domain sentinel wrapped in an
// APIError carrying the server message.
func (c *Client) statusError(resp *http.Response, opts requestOpts) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	message := ""
	if json.Unmarshal(raw, &eb) == nil {
		message = eb.Message
		if message == "" {
			message = eb.Error
		}
	}

	var kind error
	switch status := resp.StatusCode; {
	case status == http.StatusUnauthorized:
		kind = domain.ErrUnauthorized
		if c.onUnauthorized != nil && !opts.anonymous {
			c.onUnauthorized()
		}
	case status == http.StatusForbidden:
		kind = domain.ErrForbidden
	case status == http.StatusNotFound:
		kind = domain.ErrNotFound
	case status == http.StatusConflict:
		kind = domain.ErrConflict
	case status == http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case status >= 500:
		kind = domain.ErrServer
	default:
		kind = domain.ErrBadRequest
	}

	apiErr := domain.NewAPIError(resp.StatusCode, message, kind)
	apiErr.RetryAfter = retryAfter(resp.Header.Get("Retry-After"))
	return apiErr
}

// retryAfter reads a Retry-After header given in seconds. HTTP dates are
// not sent by the platform and are ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (c *Client) observe(method, status string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, status, time.Since(start).Seconds())
	}
}
