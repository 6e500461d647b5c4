package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore is a shared, time-indexed set of revoked token ids. It must
// be visible to every server instance, so the production implementation is
// Redis rather than process-local memory.
type RevocationStore interface {
	// Revoke records the token id until expiresAt. Revoking an id that is
	// already present or already past expiry is a no-op success.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	// IsRevoked reports whether the token id has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revocationKeyPrefix = "auth:revoked:"

// RedisRevocationStore implements RevocationStore on a shared Redis instance.
// Entry TTLs equal the revoked token's remaining lifetime, so the set never
// grows unbounded and never forgets a revocation early; expiry is delegated
// to Redis, there is no sweep here.
type RedisRevocationStore struct {
	client  *redis.Client
	timeout time.Duration
	now     func() time.Time
}

// NewRedisRevocationStore wraps the client. timeout bounds each round-trip on
// top of the caller's context.
func NewRedisRevocationStore(client *redis.Client, timeout time.Duration) *RedisRevocationStore {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RedisRevocationStore{client: client, timeout: timeout, now: time.Now}
}

// Revoke marks the token id revoked for exactly its remaining lifetime.
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		// The token is already past its encoded expiry; parsing rejects it
		// without consulting the store.
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, revocationKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}

// IsRevoked checks membership with a single-key read.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Exists(ctx, revocationKeyPrefix+tokenID).Result()
	if err != nil {
		return false, ErrStoreUnavailable
	}
	return n > 0, nil
}
