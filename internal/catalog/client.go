package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultClientTimeout = 5 * time.Second
	defaultRetryBase     = 100 * time.Millisecond
)

// CompositionResponse is the wire shape of a composition served over HTTP.
type CompositionResponse struct {
	Category Category          `json:"category"`
	Key      string            `json:"key"`
	Items    []CompositionItem `json:"items"`
}

// AvailabilityResponse is the wire shape of an availability check.
type AvailabilityResponse struct {
	Category   Category `json:"category"`
	Key        string   `json:"key,omitempty"`
	Configured bool     `json:"configured"`
}

// NotFoundCode is the error code a catalog sends with a 404 for a composition
// it does not have. A 404 without it means the endpoint itself is wrong.
const NotFoundCode = "composition_not_found"

// ErrorResponse is the wire shape of a catalog error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Client is a Lookup backed by a remote catalog service.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	retries   uint64
	retryBase time.Duration
}

// NewClient builds a Client. timeout bounds a whole lookup including retries.
func NewClient(baseURL string, timeout time.Duration, retries uint64) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{},
		timeout:   timeout,
		retries:   retries,
		retryBase: defaultRetryBase,
	}
}

func (c *Client) Composition(ctx context.Context, req Request) ([]CompositionItem, error) {
	endpoint := fmt.Sprintf("%s/api/catalog/%s/compositions/%s",
		c.baseURL, url.PathEscape(string(req.Category)), url.PathEscape(req.Key))

	var resp CompositionResponse
	if err := c.get(ctx, "composition", endpoint, &resp); err != nil {
		if errors.Is(err, ErrCompositionNotFound) {
			return nil, fmt.Errorf("%s: %w", req, ErrCompositionNotFound)
		}
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%s: %w", req, ErrCompositionNotFound)
	}
	return Snapshot(resp.Items), nil
}

func (c *Client) Configured(ctx context.Context, category Category, key string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/catalog/%s/availability", c.baseURL, url.PathEscape(string(category)))
	if key != "" {
		endpoint += "?" + url.Values{"key": []string{key}}.Encode()
	}

	var resp AvailabilityResponse
	if err := c.get(ctx, "availability", endpoint, &resp); err != nil {
		if errors.Is(err, ErrCompositionNotFound) {
			return false, nil
		}
		return false, err
	}
	return resp.Configured, nil
}

// get fetches endpoint into out. A 404 carrying NotFoundCode maps to
// ErrCompositionNotFound without retrying; any other 404 is a service error. network failures and 5xx responses are retried with exponential
// backoff until the client timeout expires.
func (c *Client) get(ctx context.Context, op, endpoint string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			var e ErrorResponse
			if json.Unmarshal(body, &e) == nil && e.Error == NotFoundCode {
				return ErrCompositionNotFound
			}
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCompositionNotFound) {
		return err
	}
	return &ServiceError{Op: op, Err: err}
}
