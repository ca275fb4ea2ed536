// Package authn holds the authentication token, the provider that is the only
// thing allowed to mark a token authenticated, and the request security
// context the filter populates.
package authn

import (
	"log/slog"
	"slices"

	"clearledger/pkg/domain"
)

// CredentialKind tags what a token's credentials are.
type CredentialKind int

const (
	// CredentialPassword is a username/password pair from a login.
	CredentialPassword CredentialKind = iota + 1
	// CredentialBearer is a bearer token whose signature was already
	// verified; the principal is the username it names.
	CredentialBearer
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialPassword:
		return "password"
	case CredentialBearer:
		return "bearer"
	default:
		return "unknown"
	}
}

// Authority is a granted role.
type Authority string

const AuthorityUser Authority = "ROLE_USER"

// Token is built unauthenticated for each attempt. Provider.Authenticate
// either returns it authenticated, with credentials erased and the resolved
// user attached, or fails and the token is dropped.
type Token struct {
	kind          CredentialKind
	principal     string
	credentials   string
	authenticated bool
	details       *domain.BusinessUser
	authorities   []Authority
}

// NewPasswordToken builds an unauthenticated login token.
func NewPasswordToken(username, password string) *Token {
	return &Token{kind: CredentialPassword, principal: username, credentials: password}
}

// NewBearerToken builds an unauthenticated token for a verified bearer
// credential naming username.
func NewBearerToken(username, raw string) *Token {
	return &Token{kind: CredentialBearer, principal: username, credentials: raw}
}

func (t *Token) Kind() CredentialKind  { return t.kind }
func (t *Token) Principal() string     { return t.principal }
func (t *Token) Credentials() string   { return t.credentials }
func (t *Token) IsAuthenticated() bool { return t.authenticated }

// Details returns the resolved user of an authenticated token.
func (t *Token) Details() (domain.BusinessUser, bool) {
	if t.details == nil {
		return domain.BusinessUser{}, false
	}
	return *t.details, true
}

// Authorities returns a copy of the granted authorities.
func (t *Token) Authorities() []Authority {
	return slices.Clone(t.authorities)
}

// EraseCredentials drops the secret.
func (t *Token) EraseCredentials() {
	t.credentials = ""
}

// LogValue keeps credentials out of logs.
func (t *Token) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", t.kind.String()),
		slog.String("principal", t.principal),
		slog.Bool("authenticated", t.authenticated),
	)
}

func (t *Token) markAuthenticated(user domain.BusinessUser, authorities []Authority) {
	t.EraseCredentials()
	t.authenticated = true
	t.details = &user
	t.authorities = slices.Clone(authorities)
}
