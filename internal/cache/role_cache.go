package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RoleCache keeps the resolved role per identity so routing does not hit
// the database on every request.
type RoleCache interface {
	Get(ctx context.Context, identityID uuid.UUID) (domain.Role, bool, error)
	// Set overwrites the cached role. Callers that just changed the role use it.
	Set(ctx context.Context, identityID uuid.UUID, role domain.Role) error
	// Fill caches a role read from the database only if no entry exists, so
	// a read that raced a role change cannot replace the newer value.
	Fill(ctx context.Context, identityID uuid.UUID, role domain.Role) error
}

type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisRoleCache(client *redis.Client, ttl time.Duration) *RedisRoleCache {
	return &RedisRoleCache{client: client, ttl: ttl, prefix: "role:"}
}

func (c *RedisRoleCache) key(id uuid.UUID) string {
	return c.prefix + id.String()
}

func (c *RedisRoleCache) Get(ctx context.Context, identityID uuid.UUID) (domain.Role, bool, error) {
	val, err := c.client.Get(ctx, c.key(identityID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("role cache: get: %w", err)
	}

	role := domain.Role(val)
	if !role.IsValid() {
		// Treat garbage as a miss; the next Set overwrites it.
		return "", false, nil
	}
	return role, true, nil
}

func (c *RedisRoleCache) Set(ctx context.Context, identityID uuid.UUID, role domain.Role) error {
	if !role.IsValid() {
		return domain.ErrInvalidRole
	}
	return c.client.Set(ctx, c.key(identityID), string(role), c.ttl).Err()
}

func (c *RedisRoleCache) Fill(ctx context.Context, identityID uuid.UUID, role domain.Role) error {
	if !role.IsValid() {
		return domain.ErrInvalidRole
	}
	return c.client.SetNX(ctx, c.key(identityID), string(role), c.ttl).Err()
}
