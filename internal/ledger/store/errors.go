package store

import (
	"fmt"

	"clearledger/pkg/platform/sentinel"
)

// ErrMemberExists wraps sentinel.ErrConflict.
var ErrMemberExists = fmt.Errorf("ledger member: %w", sentinel.ErrConflict)
