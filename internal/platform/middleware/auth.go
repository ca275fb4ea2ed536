package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"clearledger/internal/auth/authn"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/httputil"
	"clearledger/pkg/requestcontext"
)

// TokenVerifier checks a raw bearer token's signature and expiry.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*VerifiedToken, error)
}

// VerifiedToken is what the filter needs from a verified bearer token.
type VerifiedToken struct {
	Username string
	UserID   string
	JTI      string
}

// Authenticator turns an unauthenticated token into an authenticated one.
type Authenticator interface {
	Authenticate(ctx context.Context, tok *authn.Token) (*authn.Token, error)
}

const bearerPrefix = "bearer "

// bearerToken returns the Authorization value with an optional "Bearer "
// prefix (any case) removed. A bare scheme with no credential is blank.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.EqualFold(header, strings.TrimSpace(bearerPrefix)) {
		return ""
	}
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		header = strings.TrimSpace(header[len(bearerPrefix):])
	}
	return header
}

// Authenticate is the request authentication filter. Requests without an
// Authorization header pass through anonymously; a present but unusable
// token ends the request with 401.
func Authenticate(verifier TokenVerifier, authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)
			verified, err := verifier.VerifyToken(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, authn.ErrTokenVerification)
				return
			}
			if verified.Username == "" {
				logger.WarnContext(ctx, "unauthorized access - token without audience",
					"jti", verified.JTI,
					"request_id", requestID,
				)
				httputil.WriteError(w, authn.ErrMissingUserInfo)
				return
			}

			tok, err := authenticator.Authenticate(ctx, authn.NewBearerToken(verified.Username, raw))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - bearer authentication failed",
					"error", err,
					"username", verified.Username,
					"request_id", requestID,
				)
				if de, ok := dErrors.As(err); !ok || de.Code == dErrors.CodeInternal {
					err = authn.ErrServerError
				}
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(authn.WithAuthentication(ctx, tok)))
		})
	}
}

// CurrentUser copies the authenticated user from the security context into
// the current-user holder for handlers and services.
func CurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := authn.FromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, ok := tok.Details()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithUser(r.Context(), user)))
	})
}

// RequireUser rejects requests that carry no current user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requestcontext.User(r.Context()); !ok {
			httputil.WriteError(w, authn.ErrLoginRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
