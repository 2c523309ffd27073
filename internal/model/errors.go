package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Refresh token related errors
	ErrTokenNotFound     = errors.New("refresh token not found")
	ErrTokenUserMismatch = errors.New("refresh token user mismatch")
	ErrTokenRevoked      = errors.New("refresh token already revoked")
	ErrTokenExpired      = errors.New("refresh token expired")

	// Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
