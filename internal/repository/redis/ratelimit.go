package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const rateLimitPrefix = "ratelimit"

// RateLimiter counts requests per key in fixed one-minute windows shared by
// every backend instance
type RateLimiter struct {
	client *Client
	limit  int64
	now    func() time.Time
}

// NewRateLimiter allows requestsPerMinute plus burst requests per key and window
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  int64(requestsPerMinute + burst),
		now:    time.Now,
	}
}

// Allow counts one request for key.
// Returns (allowed, remaining, resetTime, error).
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := r.now().Truncate(time.Minute)
	windowEnd := windowStart.Add(time.Minute)
	windowKey := r.windowKey(key, windowStart)

	pipe := r.client.rdb.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	// keep the counter a little past the window so late readers still see it
	pipe.ExpireAt(ctx, windowKey, windowEnd.Add(5*time.Second))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count := incr.Val()
	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= r.limit, int(remaining), windowEnd, nil
}

// Reset clears the current window of key
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.rdb.Del(ctx, r.windowKey(key, r.now().Truncate(time.Minute))).Err()
}

func (r *RateLimiter) windowKey(key string, windowStart time.Time) string {
	return r.client.key(rateLimitPrefix, key, strconv.FormatInt(windowStart.Unix(), 10))
}
