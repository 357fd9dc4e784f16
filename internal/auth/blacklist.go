package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklist:"

// RevocationRegistry records revoked token ids until their natural
// expiry. Absence of an entry means "not revoked", not "valid" —
// signature and expiry checks still apply.
type RevocationRegistry interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisBlacklist is the Redis-backed registry. Every round trip carries
// a bounded timeout so a slow Redis cannot stall request handling.
type RedisBlacklist struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisBlacklist builds the registry on an existing client.
func NewRedisBlacklist(client *redis.Client, timeout time.Duration) *RedisBlacklist {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisBlacklist{client: client, timeout: timeout}
}

// Revoke inserts a marker that expires together with the token it
// revokes, so the registry never grows unboundedly. A non-positive TTL
// means the token has already expired and needs no entry.
func (b *RedisBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.client.Set(ctx, blacklistKeyPrefix+tokenID, "true", ttl).Err()
}

// IsRevoked is a point-in-time membership check.
func (b *RedisBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
