// Package service implements ledgers, sharing and transaction recording for
// the current user.
package service

import (
	"context"
	"errors"
	"log/slog"

	"clearledger/internal/auth/authn"
	authmodels "clearledger/internal/auth/models"
	"clearledger/internal/idgen"
	"clearledger/internal/ledger/models"
	"clearledger/internal/platform/metrics"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/audit"
	"clearledger/pkg/platform/sentinel"
	"clearledger/pkg/requestcontext"
)

type Store interface {
	CreateLedger(ctx context.Context, ledger *models.Ledger, owner *models.Member) error
	FindLedger(ctx context.Context, id domain.LedgerID) (*models.Ledger, error)
	ListLedgersForUser(ctx context.Context, userID domain.UserID) ([]*models.Ledger, error)
	FindMember(ctx context.Context, ledgerID domain.LedgerID, userID domain.UserID) (*models.Member, error)
	AddMember(ctx context.Context, member *models.Member) error
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	ListTransactions(ctx context.Context, ledgerID domain.LedgerID, offset, limit int) ([]*models.Transaction, int, error)
}

type IDIssuer interface {
	NextID(ctx context.Context, entity idgen.Entity) (string, error)
}

// UserFinder resolves the username a ledger is shared with.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*authmodels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store   Store
	ids     IDIssuer
	users   UserFinder
	logger  *slog.Logger
	auditor AuditPublisher
	metrics *metrics.Metrics
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

func New(store Store, ids IDIssuer, users UserFinder, opts ...Option) *Service {
	s := &Service{store: store, ids: ids, users: users, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func currentUser(ctx context.Context) (domain.BusinessUser, error) {
	user, ok := requestcontext.User(ctx)
	if !ok {
		return domain.BusinessUser{}, authn.ErrLoginRequired
	}
	return user, nil
}

// membership returns the caller's membership of ledgerID. Non-members get
// ErrLedgerNotFound so ledger IDs cannot be enumerated.
func (s *Service) membership(ctx context.Context, ledgerID domain.LedgerID, userID domain.UserID) (*models.Member, error) {
	member, err := s.store.FindMember(ctx, ledgerID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ledger access")
	}
	return member, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
	}
}
