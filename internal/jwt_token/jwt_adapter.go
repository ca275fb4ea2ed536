package jwttoken

import (
	"clearledger/internal/platform/middleware"
)

func ToVerifiedToken(claims *Claims) *middleware.VerifiedToken {
	return &middleware.VerifiedToken{
		Username: claims.Username(),
		UserID:   claims.Subject,
		JTI:      claims.ID,
	}
}

// JWTServiceAdapter lets the authentication filter verify tokens without
// importing jwt types.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) VerifyToken(tokenString string) (*middleware.VerifiedToken, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToVerifiedToken(claims), nil
}
