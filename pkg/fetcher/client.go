package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"chanscraper/pkg/config"
	errs "chanscraper/pkg/errors"
	"chanscraper/pkg/logger"
	"chanscraper/pkg/ratelimit"
	"chanscraper/pkg/retry"

	"github.com/corpix/uarand"
)

// Page is a fetched HTML document
type Page struct {
	URL         string
	Body        []byte
	ContentType string
}

// Client issues GET requests to the thread sites and to the aggregator
type Client struct {
	siteClient       *http.Client
	aggregatorClient *http.Client
	headers          map[string]string
	limiter          ratelimit.Limiter
	retry            *retry.Config
	logger           logger.Logger
}

// NewClient creates a client from the site and retry settings of cfg
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}

	userAgent := cfg.Site.UserAgent
	if userAgent == config.RandomUserAgent {
		userAgent = uarand.GetRandom()
	}

	return &Client{
		siteClient: &http.Client{
			Timeout: cfg.Site.RequestTimeout,
		},
		aggregatorClient: &http.Client{
			Timeout: cfg.Site.AggregatorTimeout,
		},
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		limiter: ratelimit.NewHostLimiter(cfg.Site.RequestsPerSecond, cfg.Site.Burst),
		retry: &retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff:     retry.NewBackoff(cfg.Retry.Delay, cfg.Retry.Multiplier),
			RetryIf:     retry.DefaultRetryIf,
			Logger:      log,
		},
		logger: log,
	}
}

// UserAgent returns the user agent sent with every request
func (c *Client) UserAgent() string {
	return c.headers["User-Agent"]
}

// Fetch retrieves a thread or candidate page. Connection failures are retried
// once; error statuses are returned immediately.
func (c *Client) Fetch(ctx context.Context, url string) (*Page, error) {
	return c.fetchPage(ctx, c.siteClient, url)
}

// FetchAggregator retrieves an aggregator result page using the aggregator timeout
func (c *Client) FetchAggregator(ctx context.Context, url string) (*Page, error) {
	return c.fetchPage(ctx, c.aggregatorClient, url)
}

// Download streams the body of url into w and returns the number of bytes written.
// It is not retried: a failed download moves on to the next candidate instead.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := c.get(ctx, c.siteClient, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errs.Unreachable(url, fmt.Errorf("failed to read body: %w", err))
	}

	c.logger.DebugWithFields("download completed", map[string]interface{}{
		"url":  url,
		"size": n,
	})
	return n, nil
}

func (c *Client) fetchPage(ctx context.Context, client *http.Client, url string) (*Page, error) {
	return retry.DoWithResult(ctx, func() (*Page, error) {
		resp, err := c.get(ctx, client, url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errs.Unreachable(url, fmt.Errorf("failed to read body: %w", err))
		}

		return &Page{
			URL:         resp.Request.URL.String(),
			Body:        body,
			ContentType: resp.Header.Get("Content-Type"),
		}, nil
	}, c.retry)
}

// get performs one GET request with the configured headers and classifies the result.
// On success the caller owns the response body.
func (c *Client) get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx, url); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			URL:     url,
			Err:     err,
		}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":         url,
			"error":       err.Error(),
			"duration_ms": duration.Milliseconds(),
		})
		return nil, errs.Unreachable(url, err)
	}

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errs.HTTPStatus(url, resp.StatusCode)
	}
	return resp, nil
}
