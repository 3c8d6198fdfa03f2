package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until a request to rawURL is allowed or ctx is done
	Wait(ctx context.Context, rawURL string) error
}

// HostLimiter paces requests separately for each host, so slow aggregator
// lookups do not starve requests to the thread site.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing requestsPerSecond per host.
// A value <= 0 disables pacing.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Wait blocks until the host of rawURL has a token available
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	return h.limiterFor(rawURL).Wait(ctx)
}

func (h *HostLimiter) limiterFor(rawURL string) *rate.Limiter {
	host := hostOf(rawURL)

	h.mu.Lock()
	defer h.mu.Unlock()

	if limiter, ok := h.limiters[host]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(h.limit, h.burst)
	h.limiters[host] = limiter
	return limiter
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
