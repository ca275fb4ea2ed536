// Package store persists ledgers, their members and their transactions.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"clearledger/internal/ledger/models"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/sentinel"
)

type memberKey struct {
	ledger domain.LedgerID
	user   domain.UserID
}

// InMemoryStore keeps everything in maps guarded by one lock.
type InMemoryStore struct {
	mu           sync.RWMutex
	ledgers      map[domain.LedgerID]models.Ledger
	members      map[memberKey]models.Member
	transactions map[domain.LedgerID][]models.Transaction
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		ledgers:      make(map[domain.LedgerID]models.Ledger),
		members:      make(map[memberKey]models.Member),
		transactions: make(map[domain.LedgerID][]models.Transaction),
	}
}

// CreateLedger saves ledger and owner membership together.
func (s *InMemoryStore) CreateLedger(_ context.Context, ledger *models.Ledger, owner *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[ledger.ID]; ok {
		return sentinel.ErrConflict
	}
	s.ledgers[ledger.ID] = *ledger
	s.members[memberKey{owner.LedgerID, owner.UserID}] = *owner
	return nil
}

func (s *InMemoryStore) FindLedger(_ context.Context, id domain.LedgerID) (*models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &l, nil
}

// ListLedgersForUser returns ledgers userID belongs to, newest first.
func (s *InMemoryStore) ListLedgersForUser(_ context.Context, userID domain.UserID) ([]*models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Ledger
	for key := range s.members {
		if key.user != userID {
			continue
		}
		if l, ok := s.ledgers[key.ledger]; ok {
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) FindMember(_ context.Context, ledgerID domain.LedgerID, userID domain.UserID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberKey{ledgerID, userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &m, nil
}

func (s *InMemoryStore) AddMember(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[member.LedgerID]; !ok {
		return sentinel.ErrNotFound
	}
	key := memberKey{member.LedgerID, member.UserID}
	if _, ok := s.members[key]; ok {
		return ErrMemberExists
	}
	s.members[key] = *member
	return nil
}

func (s *InMemoryStore) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[txn.LedgerID]; !ok {
		return sentinel.ErrNotFound
	}
	s.transactions[txn.LedgerID] = append(s.transactions[txn.LedgerID], *txn)
	return nil
}

// ListTransactions returns one page, newest first, and the ledger's total.
func (s *InMemoryStore) ListTransactions(_ context.Context, ledgerID domain.LedgerID, offset, limit int) ([]*models.Transaction, int, error) {
	if offset < 0 || limit < 0 {
		return nil, 0, fmt.Errorf("list transactions: negative offset %d or limit %d", offset, limit)
	}
	s.mu.RLock()
	all := append([]models.Transaction(nil), s.transactions[ledgerID]...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return newerTransaction(all[i], all[j])
	})

	total := len(all)
	if offset >= total {
		return []*models.Transaction{}, total, nil
	}
	end := min(offset+limit, total)
	out := make([]*models.Transaction, 0, end-offset)
	for i := offset; i < end; i++ {
		out = append(out, &all[i])
	}
	return out, total, nil
}

// newerTransaction orders by occurred_at, then created_at, then ID, all
// descending, matching the Postgres query.
func newerTransaction(a, b models.Transaction) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.After(b.OccurredAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
