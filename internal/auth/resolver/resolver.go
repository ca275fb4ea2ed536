// Package resolver maps a username to its business user, consulting the user
// cache before the user store and writing loads back.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clearledger/internal/auth/models"
	"clearledger/internal/platform/metrics"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/circuit"
	"clearledger/pkg/platform/sentinel"
)

// UserCache is the cache side of the lookup.
type UserCache interface {
	Get(ctx context.Context, username string) (*domain.BusinessUser, error)
	Set(ctx context.Context, user domain.BusinessUser, ttl time.Duration) error
}

// UserStore is the authoritative source.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type Resolver struct {
	cache   UserCache
	users   UserStore
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
}

type Option func(*Resolver)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithBreaker skips the cache while it keeps failing.
func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Resolver) {
		r.breaker = b
	}
}

func New(cache UserCache, users UserStore, ttl time.Duration, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{cache: cache, users: users, ttl: ttl, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns sentinel.ErrNotFound when the user exists in neither the
// cache nor the store. Cache failures degrade to a store read.
func (r *Resolver) Resolve(ctx context.Context, username string) (*domain.BusinessUser, error) {
	useCache := r.cacheAllowed()
	if useCache {
		cached, err := r.cache.Get(ctx, username)
		switch {
		case err == nil:
			r.metrics.IncUserCacheLookup("hit")
			r.cacheSucceeded(ctx)
			return cached, nil
		case errors.Is(err, sentinel.ErrNotFound):
			r.metrics.IncUserCacheLookup("miss")
			r.cacheSucceeded(ctx)
		default:
			r.metrics.IncUserCacheLookup("error")
			r.logger.WarnContext(ctx, "user cache read failed", "username", username, "error", err)
			useCache = !r.cacheFailed(ctx)
		}
	} else {
		r.metrics.IncUserCacheLookup("bypass")
	}

	stored, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user := stored.Business()
	if useCache {
		if err := r.cache.Set(ctx, user, r.ttl); err != nil {
			r.logger.WarnContext(ctx, "user cache write failed", "username", username, "error", err)
			r.cacheFailed(ctx)
		}
	}
	return &user, nil
}

// Remember caches user without consulting the store.
func (r *Resolver) Remember(ctx context.Context, user domain.BusinessUser) error {
	if !r.cacheAllowed() {
		return nil
	}
	if err := r.cache.Set(ctx, user, r.ttl); err != nil {
		r.cacheFailed(ctx)
		return err
	}
	r.cacheSucceeded(ctx)
	return nil
}

func (r *Resolver) cacheAllowed() bool {
	return r.breaker == nil || r.breaker.Allow()
}

// cacheFailed reports whether the breaker is now open.
func (r *Resolver) cacheFailed(ctx context.Context) bool {
	if r.breaker == nil {
		return false
	}
	open, change := r.breaker.RecordFailure()
	if change.Opened {
		r.logger.ErrorContext(ctx, "user cache circuit opened, reading from store only", "breaker", r.breaker.Name())
	}
	return open
}

func (r *Resolver) cacheSucceeded(ctx context.Context) {
	if r.breaker == nil {
		return
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "user cache circuit closed", "breaker", r.breaker.Name())
	}
}
