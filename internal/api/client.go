package api

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

	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 60 * time.Second
	// MaxRetries for rate limit and unavailable responses
	MaxRetries = 3
	// InitialBackoff for retries
	InitialBackoff = 2 * time.Second
)

// Error types for specific API errors
type (
	// AuthenticationError indicates a missing or rejected API key
	AuthenticationError struct{ Message string }
	// RateLimitError indicates the server asked the client to back off
	RateLimitError struct{ Message string }
	// ServerError is a non-envelope error response
	ServerError struct {
		Status  int
		Message string
	}
)

func (e AuthenticationError) Error() string { return e.Message }
func (e RateLimitError) Error() string      { return e.Message }
func (e ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// Client talks to a `bookmarks serve` instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	sleep      func(time.Duration)
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets the retry count and initial backoff for 429/503 responses
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// NewClient creates a client for the server at baseURL. An empty apiKey
// sends no Authorization header.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, toc.UsageError{Message: fmt.Sprintf("invalid server URL %q (expected http(s)://host[:port])", baseURL)}
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: MaxRetries,
		backoff:    InitialBackoff,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// response is a raw reply the caller decodes.
type response struct {
	status int
	body   []byte
}

// do sends one request and maps transport-level failures to errors.
// Non-2xx statuses other than 401, 429 and 503 are returned to the caller.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, AuthenticationError{Message: "server rejected the API key: " + envelopeMessage(respBody)}
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return nil, RateLimitError{Message: fmt.Sprintf("server busy (status %d): %s", resp.StatusCode, envelopeMessage(respBody))}
	}
	return &response{status: resp.StatusCode, body: respBody}, nil
}

// doWithRetry retries rate limited requests with exponential backoff
func (c *Client) doWithRetry(ctx context.Context, method, path, contentType string, body []byte) (*response, error) {
	backoff := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.do(ctx, method, path, contentType, body)
		if err == nil {
			return resp, nil
		}

		// Only retry on rate limit errors
		var rl RateLimitError
		if !errors.As(err, &rl) {
			return nil, err
		}

		if attempt < c.maxRetries {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.sleep(backoff)
			backoff *= 2
		}
	}

	return nil, RateLimitError{Message: "server still busy after retries"}
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) (*Health, error) {
	resp, err := c.doWithRetry(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, ServerError{Status: resp.status, Message: envelopeMessage(resp.body)}
	}

	var h Health
	if err := json.Unmarshal(resp.body, &h); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	return &h, nil
}

// Bookmarks calls POST /v1/bookmarks with the raw PDF as body
func (c *Client) Bookmarks(ctx context.Context, pdf []byte, backend string) (*toc.Result, error) {
	path := "/v1/bookmarks"
	if backend != "" {
		path += "?backend=" + url.QueryEscape(backend)
	}

	resp, err := c.doWithRetry(ctx, http.MethodPost, path, "application/pdf", pdf)
	if err != nil {
		return nil, err
	}

	var res toc.Result
	if err := json.Unmarshal(resp.body, &res); err != nil {
		if resp.status != http.StatusOK {
			return nil, ServerError{Status: resp.status, Message: strings.TrimSpace(string(resp.body))}
		}
		return nil, fmt.Errorf("failed to parse bookmarks response: %w", err)
	}
	return &res, nil
}

// Check calls POST /v1/check with the raw PDF as body. A failure envelope
// is returned as an error carrying the server's message.
func (c *Client) Check(ctx context.Context, pdf []byte) (*toc.Summary, error) {
	resp, err := c.doWithRetry(ctx, http.MethodPost, "/v1/check", "application/pdf", pdf)
	if err != nil {
		return nil, err
	}

	if resp.status != http.StatusOK {
		var res toc.Result
		if err := json.Unmarshal(resp.body, &res); err == nil && !res.OK {
			return nil, RemoteError{Result: &res}
		}
		return nil, ServerError{Status: resp.status, Message: strings.TrimSpace(string(resp.body))}
	}

	var summary toc.Summary
	if err := json.Unmarshal(resp.body, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse check response: %w", err)
	}
	return &summary, nil
}

// RemoteError is a failure envelope returned by the server.
type RemoteError struct {
	Result *toc.Result
}

func (e RemoteError) Error() string { return e.Result.Error }

// envelopeMessage pulls "error" out of a failure envelope, falling back to
// the raw body.
func envelopeMessage(body []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(body))
}
