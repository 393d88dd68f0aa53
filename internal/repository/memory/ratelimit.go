package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long an unused per-key limiter is kept
const idleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token bucket for deployments without Redis
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     time.Duration
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows requestsPerMinute per key with the given burst
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		every:    time.Minute / time.Duration(requestsPerMinute),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether key may proceed, the tokens left and when the next one is due
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(r.every), r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	remaining := int(v.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, now.Add(r.every), nil
}

func (r *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < idleTTL {
		return
	}
	for key, v := range r.visitors {
		if now.Sub(v.lastSeen) > idleTTL {
			delete(r.visitors, key)
		}
	}
	r.lastSweep = now
}
