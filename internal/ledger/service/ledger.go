package service

import (
	"context"
	"errors"

	"clearledger/internal/idgen"
	"clearledger/internal/ledger/models"
	"clearledger/internal/ledger/store"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/audit"
	"clearledger/pkg/platform/sentinel"
	"clearledger/pkg/requestcontext"
)

// Create makes a ledger owned by the current user.
func (s *Service) Create(ctx context.Context, req models.CreateLedgerRequest) (*models.Ledger, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id, err := s.ids.NextID(ctx, idgen.EntityLedger)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	ledger := &models.Ledger{
		ID:          domain.LedgerID(id),
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
	}
	owner := &models.Member{LedgerID: ledger.ID, UserID: user.ID, Role: models.RoleOwner, AddedAt: now}
	if err := s.store.CreateLedger(ctx, ledger, owner); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create ledger")
	}

	s.metrics.IncLedgerCreated()
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.EventLedgerCreated),
		UserID:   user.ID,
		Username: user.Username,
		Subject:  ledger.ID.String(),
	})
	return ledger, nil
}

// List returns the ledgers the current user owns or was added to.
func (s *Service) List(ctx context.Context) ([]*models.Ledger, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	ledgers, err := s.store.ListLedgersForUser(ctx, user.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ledgers")
	}
	if ledgers == nil {
		ledgers = []*models.Ledger{}
	}
	return ledgers, nil
}

func (s *Service) Get(ctx context.Context, id domain.LedgerID) (*models.Ledger, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.membership(ctx, id, user.ID); err != nil {
		return nil, err
	}
	ledger, err := s.store.FindLedger(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ledger")
	}
	return ledger, nil
}

// AddMember shares a ledger with another user. Only the owner may share.
func (s *Service) AddMember(ctx context.Context, id domain.LedgerID, req models.AddMemberRequest) (*models.Member, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	caller, err := s.membership(ctx, id, user.ID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleOwner {
		return nil, ErrNotOwner
	}

	target, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	member := &models.Member{LedgerID: id, UserID: target.ID, Role: models.RoleMember, AddedAt: requestcontext.Now(ctx)}
	if err := s.store.AddMember(ctx, member); err != nil {
		switch {
		case errors.Is(err, store.ErrMemberExists):
			return nil, ErrAlreadyMember
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, ErrLedgerNotFound
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add member")
		}
	}

	s.logAudit(ctx, audit.Event{
		Action:   string(audit.EventLedgerShared),
		UserID:   user.ID,
		Username: user.Username,
		Subject:  id.String(),
		Reason:   "shared with " + target.Username,
	})
	return member, nil
}
