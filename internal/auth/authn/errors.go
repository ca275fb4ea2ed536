package authn

import dErrors "clearledger/pkg/domain-errors"

// Authentication and registration failures. Each carries the status it is
// rendered with. ErrServerError renders as 401, not 500.
var (
	ErrInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "username/password mismatch.")
	ErrUserNotFound       = dErrors.New(dErrors.CodeUnauthorized, "user not found")
	ErrTokenVerification  = dErrors.New(dErrors.CodeUnauthorized, "please log in again.")
	ErrMissingUserInfo    = dErrors.New(dErrors.CodeUnauthorized, "unable to read user information")
	ErrServerError        = dErrors.New(dErrors.CodeUnauthorized, "authentication failed, please try again later")
	ErrLoginRequired      = dErrors.New(dErrors.CodeUnauthorized, "please log in first.")
	ErrUsernameTaken      = dErrors.New(dErrors.CodeConflict, "username already taken")
	ErrEmailTaken         = dErrors.New(dErrors.CodeConflict, "email already registered")
)
