package auth

import "errors"

// Domain errors for token validation.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrNoClaims     = errors.New("no authenticated user in context")
)
