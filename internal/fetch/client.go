// Package fetch is the single path every provider adapter uses to reach the
// network: a GET that decodes JSON, retried with exponential backoff.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// maxErrorBody bounds how much of a failed response body is kept in errors.
const maxErrorBody = 512

// Options tunes a single FetchJSON call.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Header      http.Header
}

// Client performs JSON GET requests with bounded retry.
type Client struct {
	httpClient  *http.Client
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	maxAttempts int
	baseDelay   time.Duration
	userAgent   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock sets the clock used for backoff sleeps.
func WithClock(clk clockwork.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithRetry sets the default attempt count and base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.baseDelay = baseDelay
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a fetch client. timeout bounds each individual attempt.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		userAgent:   "disasterwatch/1.0",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetJSON is FetchJSON with the client's default options.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	return c.FetchJSON(ctx, rawURL, Options{}, out)
}

// FetchJSON issues GET rawURL and decodes the JSON body into out. A network
// error, a non-2xx status, or an undecodable body counts as a failed attempt;
// after attempt n fails it sleeps BaseDelay * 2^(n-1) before the next one.
// When all attempts fail it returns *Error wrapping the last cause.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, opts Options, out any) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = c.maxAttempts
	}
	if attempts <= 0 {
		attempts = 1
	}
	delay := opts.BaseDelay
	if delay <= 0 {
		delay = c.baseDelay
	}

	host := hostOf(rawURL)
	var (
		lastErr    error
		lastStatus int
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		status, err := c.attempt(ctx, rawURL, opts.Header, host, out)
		if err == nil {
			c.metrics.FetchAttempts.WithLabelValues(host, "success").Inc()
			return nil
		}
		lastErr, lastStatus = err, status

		if attempt == attempts || ctx.Err() != nil {
			c.metrics.FetchAttempts.WithLabelValues(host, "failure").Inc()
			break
		}
		c.metrics.FetchAttempts.WithLabelValues(host, "retry").Inc()

		wait := Backoff(delay, attempt)
		c.logger.Debug("fetch attempt failed, retrying",
			"url", rawURL,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", wait,
			"error", err,
		)
		if !c.sleep(ctx, wait) {
			c.metrics.FetchAttempts.WithLabelValues(host, "failure").Inc()
			lastErr = errors.Join(err, ctx.Err())
			break
		}
	}
	return newError(rawURL, lastStatus, attempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, rawURL string, header http.Header, host string, out any) (int, error) {
	start := c.clock.Now()
	defer func() {
		c.metrics.FetchDuration.WithLabelValues(host).Observe(c.clock.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

// Backoff returns the wait after the given failed attempt (1-based):
// base, 2*base, 4*base, ...
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
