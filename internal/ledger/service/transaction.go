package service

import (
	"context"
	"errors"

	"clearledger/internal/idgen"
	"clearledger/internal/ledger/models"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/audit"
	"clearledger/pkg/platform/sentinel"
	"clearledger/pkg/requestcontext"
)

// RecordTransaction adds an income or expense to a ledger the current user
// belongs to. OccurredAt defaults to the request time.
func (s *Service) RecordTransaction(ctx context.Context, ledgerID domain.LedgerID, req models.RecordTransactionRequest) (*models.Transaction, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.membership(ctx, ledgerID, user.ID); err != nil {
		return nil, err
	}

	id, err := s.ids.NextID(ctx, idgen.EntityTransaction)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}
	txn := &models.Transaction{
		ID:         domain.TransactionID(id),
		LedgerID:   ledgerID,
		AuthorID:   user.ID,
		Type:       req.Type,
		Amount:     req.Amount,
		Category:   req.Category,
		Note:       req.Note,
		OccurredAt: occurredAt,
		CreatedAt:  now,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transaction")
	}

	s.metrics.IncTransactionRecorded()
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.EventTransactionRecorded),
		UserID:   user.ID,
		Username: user.Username,
		Subject:  txn.ID.String(),
	})
	return txn, nil
}

// ListTransactions returns one page of a ledger's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, ledgerID domain.LedgerID, page models.PageRequest) (*models.Page[*models.Transaction], error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	page.Normalize()
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.membership(ctx, ledgerID, user.ID); err != nil {
		return nil, err
	}

	items, total, err := s.store.ListTransactions(ctx, ledgerID, page.Offset(), page.Size)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transactions")
	}
	if items == nil {
		items = []*models.Transaction{}
	}
	return &models.Page[*models.Transaction]{
		Items: items,
		Total: total,
		Page:  page.Page,
		Size:  page.Size,
	}, nil
}
