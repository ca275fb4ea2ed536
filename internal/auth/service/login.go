package service

import (
	"context"

	"clearledger/internal/auth/authn"
	"clearledger/internal/auth/models"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/audit"
	"clearledger/pkg/requestcontext"
)

const tokenTypeBearer = "Bearer"

// Login verifies a username and password and issues a bearer token. Only a
// successful login writes the user cache.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tok, err := s.authenticator.Authenticate(ctx, authn.NewPasswordToken(req.Username, req.Password))
	if err != nil {
		s.metrics.IncLogin("failure")
		s.logger.InfoContext(ctx, "login failed", "username", req.Username, "error", err)
		s.logAudit(ctx, audit.Event{
			Action:   string(audit.EventLoginFailed),
			Username: req.Username,
			Reason:   err.Error(),
		})
		return nil, err
	}

	user, ok := tok.Details()
	if !ok {
		return nil, authn.ErrServerError
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	if err := s.cache.Remember(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to cache user after login", "username", user.Username, "error", err)
	}

	s.metrics.IncLogin("success")
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.EventLoginSucceeded),
		UserID:   user.ID,
		Username: user.Username,
	})

	return &models.LoginResult{
		Token:     token,
		TokenType: tokenTypeBearer,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Me returns the current user.
func (s *Service) Me(ctx context.Context) (*domain.BusinessUser, error) {
	user, ok := requestcontext.User(ctx)
	if !ok {
		return nil, authn.ErrLoginRequired
	}
	return &user, nil
}
