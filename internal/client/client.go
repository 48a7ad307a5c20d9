package client

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

	"github.com/cenkalti/backoff/v4"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// HTTPError is returned when a collaborator answers with a 4xx or 5xx status.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// RequestIDHeader forwards the inbound request ID to collaborators.
const RequestIDHeader = "X-Request-ID"

// RetryConfig configures retries for idempotent calls.
type RetryConfig struct {
	MaxRetries           int
	InitialInterval      time.Duration
	MaxInterval          time.Duration
	Multiplier           float64
	MaxElapsedTime       time.Duration
	RetryableStatusCodes []int
}

// DefaultRetryConfig returns the stock retry policy.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:           3,
		InitialInterval:      100 * time.Millisecond,
		MaxInterval:          2 * time.Second,
		Multiplier:           2.0,
		MaxElapsedTime:       10 * time.Second,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
	}
}

// Client is a JSON-over-HTTP client for the master-data and billing collaborators.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	retry      *RetryConfig
	log        *logger.Logger
}

// New creates a Client with the given options.
func New(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		retry: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBaseURL sets the prefix joined to every request path.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetryConfig replaces the retry policy. A nil config disables retries.
func WithRetryConfig(cfg *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithLogger attaches a logger for request outcomes.
func WithLogger(log *logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// PostJSON posts body to path and decodes the response into out.
// When retry is true, transport errors and retryable statuses are retried with exponential backoff.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}, retry bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.url(path)
	start := time.Now()

	var respBody []byte
	attempt := func() error {
		b, err := c.do(ctx, http.MethodPost, url, payload)
		if err != nil {
			if retry && c.retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		respBody = b
		return nil
	}

	if retry && c.retry != nil && c.retry.MaxRetries > 0 {
		err = backoff.Retry(attempt, backoff.WithContext(c.backOff(), ctx))
	} else {
		err = attempt()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
	}

	fields := map[string]interface{}{
		"method":      http.MethodPost,
		"url":         url,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		if c.log != nil {
			c.log.Error("collaborator request failed", err, fields)
		}
		return err
	}
	if c.log != nil {
		c.log.Debug("collaborator request succeeded", fields)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Method: method, URL: url, Body: string(b)}
	}
	return b, nil
}

func (c *Client) retryable(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return true
	}
	if c.retry == nil {
		return false
	}
	for _, code := range c.retry.RetryableStatusCodes {
		if httpErr.StatusCode == code {
			return true
		}
	}
	return false
}

func (c *Client) backOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retry.InitialInterval
	exp.MaxInterval = c.retry.MaxInterval
	exp.Multiplier = c.retry.Multiplier
	exp.MaxElapsedTime = c.retry.MaxElapsedTime
	return backoff.WithMaxRetries(exp, uint64(c.retry.MaxRetries))
}

func (c *Client) url(path string) string {
	if c.baseURL == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
