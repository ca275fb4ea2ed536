package domain

import (
	"regexp"

	dErrors "clearledger/pkg/domain-errors"
)

// Identifiers are issued by the identifier composer as
// <type code><yyMMdd><serial>, the serial being at least four digits.
type (
	UserID        string
	LedgerID      string
	TransactionID string
)

const (
	UserCode        = "US"
	LedgerCode      = "LG"
	TransactionCode = "TX"
)

var idPattern = regexp.MustCompile(`^([A-Z]{2})[0-9]{6}[0-9]{4,}$`)

func (id UserID) String() string        { return string(id) }
func (id LedgerID) String() string      { return string(id) }
func (id TransactionID) String() string { return string(id) }

func (id UserID) IsZero() bool   { return id == "" }
func (id LedgerID) IsZero() bool { return id == "" }

// ParseUserID validates s as a user identifier.
func ParseUserID(s string) (UserID, error) {
	if err := parse(s, UserCode, "user ID"); err != nil {
		return "", err
	}
	return UserID(s), nil
}

// ParseLedgerID validates s as a ledger identifier.
func ParseLedgerID(s string) (LedgerID, error) {
	if err := parse(s, LedgerCode, "ledger ID"); err != nil {
		return "", err
	}
	return LedgerID(s), nil
}

// ParseTransactionID validates s as a transaction identifier.
func ParseTransactionID(s string) (TransactionID, error) {
	if err := parse(s, TransactionCode, "transaction ID"); err != nil {
		return "", err
	}
	return TransactionID(s), nil
}

func parse(s, code, label string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeBadRequest, label+" required")
	}
	m := idPattern.FindStringSubmatch(s)
	if m == nil || m[1] != code {
		return dErrors.New(dErrors.CodeBadRequest, "invalid "+label)
	}
	return nil
}
