package user

import (
	"fmt"

	"clearledger/pkg/platform/sentinel"
)

// Conflict errors name the unique field that rejected the insert. Both wrap
// sentinel.ErrConflict.
var (
	ErrUsernameConflict = fmt.Errorf("username: %w", sentinel.ErrConflict)
	ErrEmailConflict    = fmt.Errorf("email: %w", sentinel.ErrConflict)
)
