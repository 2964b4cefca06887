package auth

import "errors"

// Token verification errors. The HTTP layer maps all of them to 401.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")

	// ErrMissingUserID is returned for a well-formed token that names no user.
	ErrMissingUserID = errors.New("authentication token has no user id")
)
