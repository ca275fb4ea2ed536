package authn

import "context"

type securityContextKey struct{}

// WithAuthentication stores an authenticated token as the request's security
// context. Unauthenticated tokens are ignored.
func WithAuthentication(ctx context.Context, tok *Token) context.Context {
	if tok == nil || !tok.IsAuthenticated() {
		return ctx
	}
	return context.WithValue(ctx, securityContextKey{}, tok)
}

// FromContext returns the request's authenticated token.
func FromContext(ctx context.Context) (*Token, bool) {
	tok, ok := ctx.Value(securityContextKey{}).(*Token)
	return tok, ok
}
