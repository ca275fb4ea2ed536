// Package serial issues per-tag monotonically increasing counters. Counters
// start at 1 after a reset and are shared by every process pointed at the same
// Redis namespace; atomicity comes from Redis INCR, not from local locking.
package serial

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	dErrors "clearledger/pkg/domain-errors"
)

const keySegment = "serial"

var errEmptyTag = dErrors.New(dErrors.CodeValidation, "serial tag is required")

// RedisAllocator keeps counters in Redis under <namespace>:serial:<tag>.
type RedisAllocator struct {
	client    *redis.Client
	namespace string
}

// NewRedis constructs a Redis-backed allocator.
func NewRedis(client *redis.Client, namespace string) *RedisAllocator {
	return &RedisAllocator{client: client, namespace: namespace}
}

// Next increments the tag's counter and returns the new value.
func (a *RedisAllocator) Next(ctx context.Context, tag string) (int64, error) {
	key, err := a.key(tag)
	if err != nil {
		return 0, err
	}
	n, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return n, nil
}

// Reset sets the tag's counter back to zero.
func (a *RedisAllocator) Reset(ctx context.Context, tag string) error {
	key, err := a.key(tag)
	if err != nil {
		return err
	}
	if err := a.client.Set(ctx, key, 0, 0).Err(); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}

func (a *RedisAllocator) key(tag string) (string, error) {
	if strings.TrimSpace(tag) == "" {
		return "", errEmptyTag
	}
	if a.namespace == "" {
		return keySegment + ":" + tag, nil
	}
	return a.namespace + ":" + keySegment + ":" + tag, nil
}

// MemoryAllocator is a process-local allocator for tests and single-instance
// development without Redis.
type MemoryAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemory constructs an empty in-memory allocator.
func NewMemory() *MemoryAllocator {
	return &MemoryAllocator{counters: make(map[string]int64)}
}

func (a *MemoryAllocator) Next(_ context.Context, tag string) (int64, error) {
	if strings.TrimSpace(tag) == "" {
		return 0, errEmptyTag
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[tag]++
	return a.counters[tag], nil
}

func (a *MemoryAllocator) Reset(_ context.Context, tag string) error {
	if strings.TrimSpace(tag) == "" {
		return errEmptyTag
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[tag] = 0
	return nil
}

// Set forces a counter value; tests use it to reach the widening boundary.
func (a *MemoryAllocator) Set(tag string, value int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[tag] = value
}
