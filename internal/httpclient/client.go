// Package httpclient provides the JSON-over-HTTP client used to talk to the
// storefront's external collaborators (catalog, image, generation and payment
// services).
package httpclient

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
)

const (
	// MaxBodySize bounds how much of a response body is read.
	MaxBodySize = 8 << 20
	// MaxErrorBodySize bounds the body kept on a StatusError.
	MaxErrorBodySize = 64 << 10
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(string(e.Body))
	if msg == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, msg)
}

// AsStatusError reports whether err carries a StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client issues requests against one base URL. It never retries; callers
// surface failures and let the user trigger the action again.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes a request. The bearer token is attached only when non-empty;
// requests without a session go out anonymously.
func (c *Client) Do(ctx context.Context, method, path, token string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// Fetch executes a request and returns the body of a 2xx response. Any other
// status becomes a *StatusError.
func (c *Client) Fetch(ctx context.Context, method, path, token string, body interface{}) ([]byte, http.Header, error) {
	resp, err := c.Do(ctx, method, path, token, body)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _, readErr := ReadAllWithLimit(resp.Body, MaxErrorBodySize)
		if readErr != nil {
			return nil, resp.Header, fmt.Errorf("read error response body: %w", readErr)
		}
		return nil, resp.Header, &StatusError{Status: resp.StatusCode, Body: data}
	}

	data, err := ReadAllStrict(resp.Body, MaxBodySize)
	if err != nil {
		return nil, resp.Header, fmt.Errorf("read response body: %w", err)
	}
	return data, resp.Header, nil
}

// GetJSON fetches path and returns the raw JSON body.
func (c *Client) GetJSON(ctx context.Context, path, token string) ([]byte, error) {
	data, _, err := c.Fetch(ctx, http.MethodGet, path, token, nil)
	return data, err
}

func (c *Client) PostJSON(ctx context.Context, path, token string, body interface{}) ([]byte, error) {
	data, _, err := c.Fetch(ctx, http.MethodPost, path, token, body)
	return data, err
}

func (c *Client) PatchJSON(ctx context.Context, path, token string, body interface{}) ([]byte, error) {
	data, _, err := c.Fetch(ctx, http.MethodPatch, path, token, body)
	return data, err
}

func (c *Client) DeleteJSON(ctx context.Context, path, token string) ([]byte, error) {
	data, _, err := c.Fetch(ctx, http.MethodDelete, path, token, nil)
	return data, err
}

// ReadAllWithLimit reads up to limit bytes and reports whether the body was
// longer than that.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}

// ReadAllStrict reads the whole body and fails when it exceeds limit.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	data, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return data, nil
}
