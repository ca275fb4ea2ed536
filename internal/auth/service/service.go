// Package service implements account registration, password login and the
// current-user lookup.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"clearledger/internal/auth/authn"
	"clearledger/internal/auth/models"
	"clearledger/internal/idgen"
	"clearledger/internal/platform/metrics"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/audit"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type IDIssuer interface {
	NextID(ctx context.Context, entity idgen.Entity) (string, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, tok *authn.Token) (*authn.Token, error)
}

type TokenIssuer interface {
	GenerateAccessToken(user domain.BusinessUser) (string, time.Time, error)
}

// UserCache is written after a successful login so later bearer requests
// resolve without a store read.
type UserCache interface {
	Remember(ctx context.Context, user domain.BusinessUser) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	users         UserStore
	ids           IDIssuer
	authenticator Authenticator
	tokens        TokenIssuer
	cache         UserCache
	logger        *slog.Logger
	auditor       AuditPublisher
	metrics       *metrics.Metrics
	bcryptCost    int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func New(users UserStore, ids IDIssuer, authenticator Authenticator, tokens TokenIssuer, cache UserCache, opts ...Option) *Service {
	s := &Service{
		users:         users,
		ids:           ids,
		authenticator: authenticator,
		tokens:        tokens,
		cache:         cache,
		logger:        slog.Default(),
		bcryptCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// logAudit emits an audit event. Audit failures are logged and never fail
// the calling operation.
func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"username", event.Username,
			"error", err,
		)
	}
}
