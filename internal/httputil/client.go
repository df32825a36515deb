package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"PremarketScanner/internal/logger"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether a status code is worth retrying.
func IsRetryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	RatePerSec   float64
	Burst        int
	MaxRetries   int
	InitialDelay time.Duration
	ProxyURL     string
	UserAgent    string
	Headers      map[string]string
}

// Client is an HTTP client with a shared rate limiter and retry with backoff.
// All provider traffic goes through one Client so the limiter covers every
// concurrent worker.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
	opts       Options
}

// New creates a Client. A zero RatePerSec disables limiting.
func New(opts Options, log *logger.Logger) *Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.InitialDelay == 0 {
		opts.InitialDelay = 500 * time.Millisecond
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	c := &Client{
		httpClient: &http.Client{Timeout: opts.Timeout, Transport: transport},
		logger:     log,
		opts:       opts,
	}
	if opts.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst)
	}
	return c
}

// GetJSON performs a GET and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out interface{}) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", redact(rawURL), err)
	}
	return nil
}

// Get performs a GET request and returns the body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, "")
}

// PostJSON marshals payload and POSTs it, returning the response body.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, data, "application/json")
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, contentType string) ([]byte, error) {
	delay := c.opts.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		body, err := c.once(ctx, method, rawURL, payload, contentType)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *StatusError
		retryable := errors.As(err, &se) && IsRetryable(se.StatusCode)
		if !retryable && se == nil && ctx.Err() == nil {
			// Transport errors are retried too.
			retryable = true
		}
		if !retryable || attempt == c.opts.MaxRetries {
			break
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay.String(),
			"url":     redact(rawURL),
		}).Debug("retrying http request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, method, rawURL string, payload []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, redact(rawURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// redact strips the query string so keys never reach the logs.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	u.RawQuery = ""
	return u.String()
}
