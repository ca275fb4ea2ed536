// Package cache keeps resolved business users keyed by username so the
// request filter does not hit Postgres on every authenticated request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clearledger/pkg/domain"
	"clearledger/pkg/platform/sentinel"
)

const userKeySegment = "user"

// RedisUserCache stores users as JSON under <namespace>:user:<username>.
type RedisUserCache struct {
	client    *redis.Client
	namespace string
}

// NewRedis constructs a Redis-backed user cache.
func NewRedis(client *redis.Client, namespace string) *RedisUserCache {
	return &RedisUserCache{client: client, namespace: namespace}
}

// Get returns sentinel.ErrNotFound on a miss.
func (c *RedisUserCache) Get(ctx context.Context, username string) (*domain.BusinessUser, error) {
	raw, err := c.client.Get(ctx, c.key(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached user: %w", err)
	}
	var user domain.BusinessUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &user, nil
}

// Set writes user with ttl.
func (c *RedisUserCache) Set(ctx context.Context, user domain.BusinessUser, ttl time.Duration) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode cached user: %w", err)
	}
	if err := c.client.Set(ctx, c.key(user.Username), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cached user: %w", err)
	}
	return nil
}

func (c *RedisUserCache) key(username string) string {
	if c.namespace == "" {
		return userKeySegment + ":" + username
	}
	return c.namespace + ":" + userKeySegment + ":" + username
}
