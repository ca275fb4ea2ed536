package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clearledger/internal/auth/models"
	"clearledger/internal/platform/postgres"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/sentinel"
)

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"

	selectUser = `SELECT id, username, email, password_hash, created_at FROM users`
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, query,
		user.ID.String(), user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if constraint, ok := postgres.UniqueConstraint(err); ok {
			switch constraint {
			case usernameConstraint:
				return ErrUsernameConflict
			case emailConstraint:
				return ErrEmailConflict
			}
			return fmt.Errorf("create user: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	return s.findOne(ctx, selectUser+` WHERE id = $1`, id.String())
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, selectUser+` WHERE lower(email) = lower($1)`, email)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u  models.User
		id string
	)
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, arg).
		Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.ID = domain.UserID(id)
	return &u, nil
}
