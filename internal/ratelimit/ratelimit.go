package ratelimit

import (
	"sync"
	"time"

	"github.com/orgball2608/crosspost/pkg/config"
	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may make another request.
type Limiter interface {
	Allow(key string) bool
}

// InMemoryLimiter keeps one token bucket per key in process memory.
type InMemoryLimiter struct {
	buckets map[string]*rate.Limiter
	mu      sync.Mutex
	r       rate.Limit // token refill rate
	b       int        // bucket size
}

// NewInMemoryLimiter allows requests per period with the given burst.
// Example: NewInMemoryLimiter(30, time.Minute, 10) -> one request every 2s, bursts of 10.
// A non-positive requests or per disables limiting.
func NewInMemoryLimiter(requests int, per time.Duration, burst int) Limiter {
	r := rate.Inf
	if requests > 0 && per > 0 {
		r = rate.Every(per / time.Duration(requests))
	}
	if burst < 1 {
		burst = 1
	}
	return &InMemoryLimiter{
		buckets: make(map[string]*rate.Limiter),
		r:       r,
		b:       burst,
	}
}

// FromConfig builds the per-user HTTP limiter.
func FromConfig(cfg *config.Config) Limiter {
	return NewInMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Per, cfg.RateLimit.Burst)
}

func (l *InMemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.buckets[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.buckets[key] = limiter
	}

	return limiter.Allow()
}
