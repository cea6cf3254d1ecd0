// Package httpretry wraps the HTTP calls made to AI providers with bounded
// retries and maps provider failures onto the domain error taxonomy.
package httpretry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Default retry policy.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// Client sends requests for one provider with retry on transient failures.
type Client struct {
	http       *http.Client
	provider   string
	maxRetries int
	baseDelay  time.Duration
}

// New creates a client for provider with the given per-request timeout.
func New(provider string, timeout time.Duration) *Client {
	return &Client{
		http:       &http.Client{Timeout: timeout},
		provider:   provider,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}
}

// WithRetries returns a copy of the client using a different retry policy.
func (c *Client) WithRetries(maxRetries int, baseDelay time.Duration) *Client {
	cp := *c
	cp.maxRetries = maxRetries
	cp.baseDelay = baseDelay
	return &cp
}

// Provider returns the provider name used in error messages.
func (c *Client) Provider() string {
	return c.provider
}

// Do executes the request built by buildReq, retrying network failures,
// 5xx responses and 429 with backoff of attempt² × base delay plus jitter.
// Non-retryable responses are returned to the caller unchanged; use
// CheckResponse to turn them into errors.
func (c *Client) Do(ctx context.Context, buildReq func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			base := time.Duration(attempt*attempt) * c.baseDelay
			backoff := base + time.Duration(rand.Int64N(int64(base/2+1)))
			logger.Debug("%s: retrying request (attempt %d, backoff %s)", c.provider, attempt+1, backoff)
			select {
			case <-ctx.Done():
				return nil, c.transportError(ctx.Err())
			case <-time.After(backoff):
			}
		}

		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", c.provider, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, c.transportError(ctx.Err())
			}
			lastErr = c.transportError(err)
			logger.Warn("%s: request failed: %v", c.provider, err)
			continue
		}

		if retryable(resp.StatusCode) {
			body := readBody(resp)
			lastErr = c.statusError(resp.StatusCode, body)
			logger.Warn("%s: server returned %d", c.provider, resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// CheckResponse returns nil for 2xx responses. Otherwise it drains and
// closes the body and returns a classified error.
func (c *Client) CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return c.statusError(resp.StatusCode, readBody(resp))
}

// PostJSON sends payload as JSON to url and decodes a 2xx JSON response
// into out.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	resp, err := c.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := c.CheckResponse(resp); err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", domain.ErrTransient, c.provider, err)
	}
	return nil
}

// Ping issues a GET to url without retries and reports any non-2xx status.
func (c *Client) Ping(ctx context.Context, url string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create ping request: %w", c.provider, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(err)
	}
	if err := c.CheckResponse(resp); err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return string(body)
}

// statusError maps an HTTP status onto the domain taxonomy.
func (c *Client) statusError(status int, body string) error {
	var kind error
	switch {
	case status == http.StatusTooManyRequests:
		kind = domain.ErrQuotaExceeded
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = domain.ErrModelTimeout
	case status >= 500:
		kind = domain.ErrTransient
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound:
		kind = domain.ErrModelUnavailable
	default:
		return fmt.Errorf("%s: API returned status %d: %s", c.provider, status, body)
	}
	return fmt.Errorf("%w: %s: API returned status %d: %s", kind, c.provider, status, body)
}

// transportError classifies a failure to get any response.
func (c *Client) transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", domain.ErrModelTimeout, c.provider, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrModelUnavailable, c.provider, err)
}
