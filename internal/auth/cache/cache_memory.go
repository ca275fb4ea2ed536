package cache

import (
	"context"
	"sync"
	"time"

	"clearledger/pkg/domain"
	"clearledger/pkg/platform/sentinel"
)

type entry struct {
	user      domain.BusinessUser
	expiresAt time.Time
}

// InMemoryUserCache is a process-local cache with per-entry expiry.
type InMemoryUserCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory constructs an empty cache.
func NewMemory() *InMemoryUserCache {
	return &InMemoryUserCache{entries: make(map[string]entry), now: time.Now}
}

func (c *InMemoryUserCache) Get(_ context.Context, username string) (*domain.BusinessUser, error) {
	c.mu.RLock()
	e, ok := c.entries[username]
	c.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.expired(e) {
		c.mu.Lock()
		// a concurrent Set may have refreshed the entry
		if cur, ok := c.entries[username]; ok && c.expired(cur) {
			delete(c.entries, username)
		}
		c.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	user := e.user
	return &user, nil
}

func (c *InMemoryUserCache) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// Set stores user; a non-positive ttl never expires, matching Redis SET.
func (c *InMemoryUserCache) Set(_ context.Context, user domain.BusinessUser, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[user.Username] = entry{user: user, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}
