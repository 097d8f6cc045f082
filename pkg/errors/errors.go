package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized access")

	ErrEmailAlreadyRegistered = errors.New("email address is already registered")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrWeakPassword           = errors.New("password is too weak")
	ErrPasswordMismatch       = errors.New("current password is incorrect")
)

// Error codes carried by AppError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodePrecondition = "PRECONDITION_FAILED"
	CodeNotFound     = "NOT_FOUND"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Precondition reports a request that cannot proceed given the current state
// of the named resource.
func Precondition(message string) *AppError {
	return NewAppError(CodePrecondition, message, nil)
}

// Code returns the AppError code found in err's chain, or "".
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
