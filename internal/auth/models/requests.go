package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores bytes past 72
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims identifying fields; the password is taken verbatim.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterRequest) Validate() error {
	if !govalidator.StringLength(r.Username, "3", "32") || !govalidator.IsAlphanumeric(strings.ReplaceAll(r.Username, "_", "")) {
		return dErrors.New(dErrors.CodeValidation, "username must be 3-32 letters, digits or underscores")
	}
	if !govalidator.StringLength(r.Email, "3", "254") || !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if len(r.Password) < minPasswordLength || len(r.Password) > maxPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be 6-72 characters")
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "username and password are required")
	}
	return nil
}

type LoginResult struct {
	Token     string              `json:"token"`
	TokenType string              `json:"token_type"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      domain.BusinessUser `json:"user"`
}
