// Package ratelimit throttles outgoing requests per host so the crawl does
// not hammer km77 (or any mirror it is pointed at).
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter is the throttling capability the fetcher depends on.
type Limiter interface {
	// Wait blocks until a request for the given URL may proceed, or the
	// context is cancelled.
	Wait(ctx context.Context, urlStr string) error
}

// HostLimiter applies a token-bucket limit per host.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing requestsPerSecond per host with
// the given burst capacity.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2.0
	}
	if burst <= 0 {
		burst = 4
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the host's bucket grants a token.
func (hl *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		// Invalid URL: let it proceed and fail in the fetcher instead.
		return nil
	}
	return hl.limiter(u.Host).Wait(ctx)
}

func (hl *HostLimiter) limiter(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.perHost, hl.burst)
	hl.limiters[host] = lim
	return lim
}
