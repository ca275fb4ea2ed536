package models

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"

	dErrors "clearledger/pkg/domain-errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CreateLedgerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *CreateLedgerRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateLedgerRequest) Validate() error {
	if !govalidator.StringLength(r.Name, "1", "100") {
		return dErrors.New(dErrors.CodeValidation, "ledger name must be 1-100 characters")
	}
	if utf8.RuneCountInString(r.Description) > 500 {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 500 characters")
	}
	return nil
}

type AddMemberRequest struct {
	Username string `json:"username"`
}

func (r *AddMemberRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *AddMemberRequest) Validate() error {
	if r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	return nil
}

type RecordTransactionRequest struct {
	Type       TransactionType `json:"type"`
	Amount     int64           `json:"amount"`
	Category   string          `json:"category"`
	Note       string          `json:"note"`
	OccurredAt *time.Time      `json:"occurred_at"`
}

func (r *RecordTransactionRequest) Normalize() {
	r.Type = TransactionType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	r.Category = strings.TrimSpace(r.Category)
	r.Note = strings.TrimSpace(r.Note)
}

func (r *RecordTransactionRequest) Validate() error {
	if !r.Type.Valid() {
		return dErrors.New(dErrors.CodeValidation, "type must be income or expense")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if !govalidator.StringLength(r.Category, "0", "50") {
		return dErrors.New(dErrors.CodeValidation, "category must be at most 50 characters")
	}
	if utf8.RuneCountInString(r.Note) > 500 {
		return dErrors.New(dErrors.CodeValidation, "note must be at most 500 characters")
	}
	return nil
}

// PageRequest is 1-based. Zero values take the defaults.
type PageRequest struct {
	Page int
	Size int
}

func (p *PageRequest) Normalize() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
}

func (p *PageRequest) Validate() error {
	if p.Page < 1 {
		return dErrors.New(dErrors.CodeBadRequest, "page must be at least 1")
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return dErrors.New(dErrors.CodeBadRequest, "size must be between 1 and 100")
	}
	if p.Page > math.MaxInt/p.Size {
		return dErrors.New(dErrors.CodeBadRequest, "page is out of range")
	}
	return nil
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}
