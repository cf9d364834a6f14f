package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"radiograb/internal/config"
	"radiograb/internal/logging"
	"radiograb/internal/services"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 8 * time.Second
	defaultUserAgent      = "radiograb"
	maxTextBytes          = 16 << 20
)

// Cache memoizes page bodies by URL.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string, ts time.Time)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether a retry may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client fetches pages and streams.
type Client struct {
	httpClient     *http.Client
	cache          Cache
	limiter        *rate.Limiter
	group          singleflight.Group
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	userAgent      string
	noCache        bool
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCache memoizes Text results in cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRateLimit paces requests to rps per second. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the attempt budget and backoff bounds.
func WithRetry(attempts int, initial, maxBackoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		if initial > 0 {
			c.initialBackoff = initial
		}
		if maxBackoff > 0 {
			c.maxBackoff = maxBackoff
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithNoCache skips cache lookups. Fetched bodies are still stored so the
// next cached run sees fresh data.
func WithNoCache(noCache bool) Option {
	return func(c *Client) { c.noCache = noCache }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "fetch") }
}

// New builds a Client. Without options it uses a 30s timeout, no cache, and no pacing.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: defaultTimeout},
		limiter:        rate.NewLimiter(rate.Inf, 0),
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		userAgent:      defaultUserAgent,
		logger:         logging.NewComponentLogger(nil, "fetch"),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a Client from the catalog settings.
func NewFromConfig(cfg *config.Config, cache Cache, noCache bool, logger *slog.Logger) *Client {
	return New(
		WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		WithCache(cache),
		WithNoCache(noCache),
		WithRateLimit(cfg.Catalog.RequestsPerSecond, 1),
		WithRetry(cfg.Catalog.MaxAttempts, 0, 0),
		WithUserAgent(cfg.Catalog.UserAgent),
		WithLogger(logger),
	)
}

// NewDownloaderFromConfig builds a Client for stream downloads. It shares the
// retry and user agent settings of the catalog client but has no overall
// request timeout, since a broadcast can take minutes to transfer.
func NewDownloaderFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	return New(
		WithHTTPClient(&http.Client{}),
		WithRetry(cfg.Catalog.MaxAttempts, 0, 0),
		WithUserAgent(cfg.Catalog.UserAgent),
		WithLogger(logger),
	)
}

// Text returns the decoded body of url.
func (c *Client) Text(ctx context.Context, url string) (string, error) {
	if c.cache != nil && !c.noCache {
		if body, ok := c.cache.Get(ctx, url); ok {
			return body, nil
		}
	}

	result, err, shared := c.group.Do(url, func() (any, error) {
		var body string
		err := c.withRetry(ctx, url, func() error {
			var fetchErr error
			body, fetchErr = c.fetchText(ctx, url)
			return fetchErr
		})
		if err != nil {
			return "", err
		}
		if c.cache != nil {
			c.cache.Put(ctx, url, body, c.now())
		}
		return body, nil
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransport, "fetch", "text", url, err)
	}
	if shared {
		c.logger.Debug("shared in-flight request", logging.String("url", url))
	}
	return result.(string), nil
}

func (c *Client) fetchText(ctx context.Context, url string) (string, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxTextBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode charset: %w", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) withRetry(ctx context.Context, url string, op func() error) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == c.maxAttempts || !retryable(ctx, err) {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			logging.String("url", url),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", backoff),
			logging.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	return true
}
