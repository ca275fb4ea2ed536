package models

import (
	"time"

	"clearledger/pkg/domain"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

type Ledger struct {
	ID          domain.LedgerID `json:"id"`
	OwnerID     domain.UserID   `json:"owner_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Member struct {
	LedgerID domain.LedgerID `json:"ledger_id"`
	UserID   domain.UserID   `json:"user_id"`
	Role     Role            `json:"role"`
	AddedAt  time.Time       `json:"added_at"`
}

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Transaction amounts are in minor currency units and always positive; Type
// carries the direction.
type Transaction struct {
	ID         domain.TransactionID `json:"id"`
	LedgerID   domain.LedgerID      `json:"ledger_id"`
	AuthorID   domain.UserID        `json:"author_id"`
	Type       TransactionType      `json:"type"`
	Amount     int64                `json:"amount"`
	Category   string               `json:"category"`
	Note       string               `json:"note"`
	OccurredAt time.Time            `json:"occurred_at"`
	CreatedAt  time.Time            `json:"created_at"`
}

// Page is one slice of a newest-first listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}
