package chain

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter throttles RPC traffic with one token bucket per node endpoint.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	perSec  rate.Limit
	burst   int
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given burst.
// It returns nil when perSecond is not positive, which disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		perSec:  rate.Limit(perSecond),
		burst:   burst,
	}
}

// Allow reports whether a request to endpoint may proceed right now.
func (r *RateLimiter) Allow(endpoint string) bool {
	if r == nil {
		return true
	}
	return r.bucket(endpoint).Allow()
}

// Wait blocks until a request to endpoint may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	if r == nil {
		return ctx.Err()
	}
	return r.bucket(endpoint).Wait(ctx)
}

func (r *RateLimiter) bucket(endpoint string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[endpoint]
	if !ok {
		b = rate.NewLimiter(r.perSec, r.burst)
		r.buckets[endpoint] = b
	}
	return b
}
