package testutil

import (
	"net/http"

	"clearledger/pkg/domain"
	"clearledger/pkg/requestcontext"
)

// WithUser sets the current user on the request, as the authentication
// middleware chain would.
func WithUser(req *http.Request, user domain.BusinessUser) *http.Request {
	return req.WithContext(requestcontext.WithUser(req.Context(), user))
}

// WithClientIP records the client address on the request.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
}
