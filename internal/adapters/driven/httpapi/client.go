// Package httpapi is the JSON-over-HTTP plumbing shared by the embedding
// and LLM provider adapters. It retries rate-limited and server-side
// failures and turns error bodies into a StatusError.
package httpapi

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

	"github.com/custodia-labs/playbookbot/internal/logger"
)

// Defaults applied by New.
const (
	DefaultMaxRetries = 2
	DefaultBackoff    = 500 * time.Millisecond
	maxBackoff        = 10 * time.Second
	maxErrorBody      = 4096
)

// Options configures a Client.
type Options struct {
	// Provider names the service in errors and logs (e.g. "openai").
	Provider string

	// BaseURL is prefixed to every request path.
	BaseURL string

	// Timeout bounds each attempt.
	Timeout time.Duration

	// Headers are sent with every request.
	Headers map[string]string

	// MaxRetries is the number of retries after a 429 or 5xx response.
	// Zero means DefaultMaxRetries; negative disables retries.
	MaxRetries int

	// Backoff is the first retry delay. It doubles per attempt unless the
	// server sends Retry-After.
	Backoff time.Duration

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// Client sends JSON requests to one provider.
type Client struct {
	http       *http.Client
	provider   string
	baseURL    string
	headers    map[string]string
	maxRetries int
	backoff    time.Duration
}

// New creates a client.
func New(opts Options) *Client {
	retries := opts.MaxRetries
	switch {
	case retries == 0:
		retries = DefaultMaxRetries
	case retries < 0:
		retries = 0
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	return &Client{
		http:       &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		provider:   opts.Provider,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		headers:    opts.Headers,
		maxRetries: retries,
		backoff:    backoff,
	}
}

// Provider returns the provider name.
func (c *Client) Provider() string {
	return c.provider
}

// Post sends in as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Get decodes the response of a GET into out. out may be nil when only
// the status matters.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		err := c.once(ctx, method, path, body, out)

		var statusErr *StatusError
		if err == nil || !errors.As(err, &statusErr) || !statusErr.Temporary() || attempt >= c.maxRetries {
			return err
		}

		wait := statusErr.RetryAfter
		if wait <= 0 {
			wait = c.backoff << attempt
		}
		wait = min(wait, maxBackoff)
		logger.Debug("%s: status %d, retrying in %s (attempt %d/%d)",
			c.provider, statusErr.Status, wait, attempt+1, c.maxRetries)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func (c *Client) once(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Provider:   c.provider,
			Status:     resp.StatusCode,
			Message:    errorMessage(data),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
