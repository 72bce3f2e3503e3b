// Package httpclient provides the HTTP client used to talk to provider APIs
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// DefaultUserAgent is the user agent string for HTTP requests
	DefaultUserAgent = "block-store/1.0"

	// DefaultRetryInterval is the first wait between retried requests
	DefaultRetryInterval = 500 * time.Millisecond

	maxErrorBodySize = 64 * 1024
)

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body.
	// A non-empty token is sent as a bearer credential.
	Get(ctx context.Context, url, token string) ([]byte, error)
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithHeader sets a header sent with every request
func WithHeader(key, value string) Option {
	return func(c *DefaultClient) {
		c.headers.Set(key, value)
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *DefaultClient) {
		c.headers.Set("User-Agent", ua)
	}
}

// WithRateLimit limits outgoing requests to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *DefaultClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry retries transport failures, 429 and 5xx responses up to
// maxAttempts total attempts with exponential backoff.
func WithRetry(maxAttempts uint, initialInterval time.Duration) Option {
	return func(c *DefaultClient) {
		c.maxAttempts = maxAttempts
		if initialInterval > 0 {
			c.retryInterval = initialInterval
		}
	}
}

// WithTransport replaces the base round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.client.Transport = rt
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client        *http.Client
	headers       http.Header
	limiter       *rate.Limiter
	maxAttempts   uint
	retryInterval time.Duration
}

var _ Client = (*DefaultClient)(nil)

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout
func NewDefaultClient(timeout time.Duration, opts ...Option) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		headers:       http.Header{},
		maxAttempts:   1,
		retryInterval: DefaultRetryInterval,
	}
	c.headers.Set("User-Agent", DefaultUserAgent)
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url, token string) ([]byte, error) {
	operation := func() ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
			}
		}
		body, retry, err := c.do(ctx, url, token)
		if err != nil && !retry {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}

	if c.maxAttempts <= 1 {
		body, err := operation()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent.Unwrap()
		}
		return body, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxAttempts),
	)
}

// do performs a single request. The bool result reports whether a failure
// may succeed on a later attempt.
func (c *DefaultClient) do(ctx context.Context, url, token string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient(token).Do(req)
	if err != nil {
		retry := ctx.Err() == nil
		return nil, retry, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, retryableStatus(resp.StatusCode),
			NewHTTPError(resp.StatusCode, url, errorMessage(resp))
	}

	// Check Content-Length header if available
	if resp.ContentLength > MaxResponseSize {
		return nil, false, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	// +1 to detect if limit exceeded
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, false, fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	return body, false, nil
}

func (c *DefaultClient) httpClient(token string) *http.Client {
	if token == "" {
		return c.client
	}
	return &http.Client{
		Timeout: c.client.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   c.client.Transport,
		},
	}
}

// errorMessage prefers the "message" field that GitHub and GitLab put in
// error bodies and falls back to the status line.
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err == nil && gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String && msg.String() != "" {
			return msg.String()
		}
	}
	return resp.Status
}
