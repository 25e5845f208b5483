package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultTimeout = 8 * time.Second
	maxBodyBytes   = 10 << 20
	retryAttempts  = 3
	retryDelay     = 200 * time.Millisecond
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.Code, e.URL)
}

// Client issues outbound requests with a hard per-call timeout. A timed-out or
// failed call is a recoverable condition for callers, never fatal.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a fetch client. A non-positive timeout falls back to the default.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// GetJSON fetches rawURL and decodes the JSON body into out. Transient
// failures (network errors, 5xx) are retried a couple of times; 4xx responses
// and malformed bodies are not.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	return retry.Do(
		func() error {
			return c.getJSONOnce(ctx, rawURL, headers, out)
		},
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
}

func (c *Client) getJSONOnce(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Get issues a single GET without retries and returns the raw response for
// streaming. The caller owns closing the body.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	return resp, nil
}

// isTransient reports whether an attempt is worth repeating: network-level
// failures and 5xx responses qualify, anything marked unrecoverable does not.
func isTransient(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}
