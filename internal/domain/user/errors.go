package user

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidUserRole   = errors.New("invalid user role")

	ErrSessionNotFound = errors.New("session not found")

	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrResetTokenUsed = errors.New("reset token has already been used")
)
