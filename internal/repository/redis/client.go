package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/trip-planner/internal/config"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// Client is the Redis connection shared by the rate limiter and the
// revocation list. Every key it hands out lives under one namespace.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// NewClient dials Redis and fails when the server does not answer a ping
// within connectTimeout
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return &Client{rdb: rdb, namespace: strings.TrimSuffix(cfg.KeyPrefix, ":")}, nil
}

// key joins parts under the client namespace: "<ns>:ratelimit:user:42"
func (c *Client) key(parts ...string) string {
	if c.namespace != "" {
		parts = append([]string{c.namespace}, parts...)
	}
	return strings.Join(parts, ":")
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping lets the readiness probe check Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
