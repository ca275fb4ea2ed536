// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values on the request context; services and handlers
// read them. The current user holder lives here: it exists only on the
// context derived for one request, so nothing set for a request outlives it.
//
//	user, ok := requestcontext.User(ctx)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
package requestcontext

import (
	"context"
	"time"

	"clearledger/pkg/domain"
)

type (
	userKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyUser        = userKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyClientIP    = clientIPKey{}
)

// User returns the current user, if the request is authenticated.
func User(ctx context.Context) (domain.BusinessUser, bool) {
	user, ok := ctx.Value(ContextKeyUser).(domain.BusinessUser)
	return user, ok
}

// UserID returns the current user's ID or the zero value.
func UserID(ctx context.Context) domain.UserID {
	user, _ := User(ctx)
	return user.ID
}

// WithUser sets the current user.
func WithUser(ctx context.Context, user domain.BusinessUser) context.Context {
	return context.WithValue(ctx, ContextKeyUser, user)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// ClientIP retrieves the client address recorded by middleware.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects the client address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside HTTP requests (scheduler, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
