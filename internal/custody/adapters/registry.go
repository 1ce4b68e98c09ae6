// Package adapters connects the custody ledger to the identity registry.
package adapters

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	id "custody/pkg/domain"
)

// RoleSource is the authoritative role lookup, normally the identity service.
type RoleSource interface {
	RoleOf(ctx context.Context, identity id.Identity) (id.Role, error)
}

// RoleCache is the subset of the Redis client the cache uses.
type RoleCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

const roleKeyPrefix = "custody:role:"

// CachedRegistry serves roles from Redis and falls back to the source on a
// miss. Only granted roles are cached: a role never changes once granted,
// while an unregistered identity may be enrolled at any time.
type CachedRegistry struct {
	source RoleSource
	cache  RoleCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedRegistry(source RoleSource, cache RoleCache, ttl time.Duration, logger *slog.Logger) *CachedRegistry {
	return &CachedRegistry{source: source, cache: cache, ttl: ttl, logger: logger}
}

// RoleOf returns identity's role. Cache failures degrade to the source.
func (r *CachedRegistry) RoleOf(ctx context.Context, identity id.Identity) (id.Role, error) {
	key := RoleKey(identity)
	cached, err := r.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(cached); convErr == nil && id.Role(n).IsValid() {
			return id.Role(n), nil
		}
	case !errors.Is(err, redis.Nil):
		r.warn(ctx, "role cache read failed", key, err)
	}

	role, err := r.source.RoleOf(ctx, identity)
	if err != nil {
		return id.RoleNone, err
	}
	if role == id.RoleNone {
		return role, nil
	}
	if err := r.cache.Set(ctx, key, strconv.Itoa(int(role)), r.ttl).Err(); err != nil {
		r.warn(ctx, "role cache write failed", key, err)
	}
	return role, nil
}

func (r *CachedRegistry) warn(ctx context.Context, msg, key string, err error) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, msg, "key", key, "error", err)
	}
}

// RoleKey is the Redis key caching identity's role.
func RoleKey(identity id.Identity) string {
	return roleKeyPrefix + identity.Hex()
}
