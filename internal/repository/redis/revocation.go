package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked"

// Revocations stores revoked refresh token ids until they would have expired
type Revocations struct {
	client *Client
}

// NewRevocations creates a new revocation store
func NewRevocations(client *Client) *Revocations {
	return &Revocations{client: client}
}

// Revoke marks tokenID as revoked until expiresAt
func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.rdb.Set(ctx, r.client.key(revokedPrefix, tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked
func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.rdb.Get(ctx, r.client.key(revokedPrefix, tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}
