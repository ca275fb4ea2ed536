package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"clearledger/internal/auth/authn"
	"clearledger/internal/auth/models"
	userstore "clearledger/internal/auth/store/user"
	"clearledger/internal/idgen"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/audit"
	"clearledger/pkg/platform/sentinel"
	"clearledger/pkg/requestcontext"
)

// Register creates an account. Username and email must both be unused.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*domain.BusinessUser, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	userID, err := s.ids.NextID(ctx, idgen.EntityUser)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           domain.UserID(userID),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, userstore.ErrUsernameConflict):
			return nil, authn.ErrUsernameTaken
		case errors.Is(err, userstore.ErrEmailConflict):
			return nil, authn.ErrEmailTaken
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
		}
	}

	s.metrics.IncUserRegistered()
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.EventUserRegistered),
		UserID:   user.ID,
		Username: user.Username,
	})

	business := user.Business()
	return &business, nil
}

// ensureAvailable checks uniqueness up front for a precise error. The store's
// unique constraints still decide races.
func (s *Service) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return authn.ErrUsernameTaken
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check username")
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return authn.ErrEmailTaken
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	return nil
}
