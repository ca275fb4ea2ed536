package authn

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"clearledger/internal/auth/models"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/sentinel"
)

var defaultAuthorities = []Authority{AuthorityUser}

// UserFinder loads stored accounts, password hash included.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// UserResolver resolves a username to its business user, cache first.
type UserResolver interface {
	Resolve(ctx context.Context, username string) (*domain.BusinessUser, error)
}

// Provider authenticates tokens. It is the only code that marks a token
// authenticated.
type Provider struct {
	users    UserFinder
	resolver UserResolver
	logger   *slog.Logger
}

// NewProvider constructs a Provider.
func NewProvider(users UserFinder, resolver UserResolver, logger *slog.Logger) *Provider {
	return &Provider{users: users, resolver: resolver, logger: logger}
}

// Authenticate checks tok's credentials and, on success, returns tok marked
// authenticated with the user attached and credentials erased.
func (p *Provider) Authenticate(ctx context.Context, tok *Token) (*Token, error) {
	if tok == nil || tok.IsAuthenticated() {
		p.logger.ErrorContext(ctx, "authenticate called with unusable token", "token_present", tok != nil)
		return nil, ErrServerError
	}
	switch tok.Kind() {
	case CredentialPassword:
		return p.authenticatePassword(ctx, tok)
	case CredentialBearer:
		return p.authenticateBearer(ctx, tok)
	default:
		p.logger.ErrorContext(ctx, "unsupported credential kind", "token", tok)
		return nil, ErrServerError
	}
}

func (p *Provider) authenticatePassword(ctx context.Context, tok *Token) (*Token, error) {
	user, err := p.users.FindByUsername(ctx, tok.Principal())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tok.Credentials()))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	tok.markAuthenticated(user.Business(), defaultAuthorities)
	return tok, nil
}

func (p *Provider) authenticateBearer(ctx context.Context, tok *Token) (*Token, error) {
	user, err := p.resolver.Resolve(ctx, tok.Principal())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user")
	}
	tok.markAuthenticated(*user, defaultAuthorities)
	return tok, nil
}
