package models

import (
	"time"

	"clearledger/pkg/domain"
)

// User is the persisted account row, including its bcrypt password hash.
type User struct {
	ID           domain.UserID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Business projects the row onto the password-free shape handed to callers.
func (u *User) Business() domain.BusinessUser {
	return domain.BusinessUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
