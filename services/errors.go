package services

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("admin authentication required")
	ErrTokenRejected      = errors.New("invalid or expired admin token")
	ErrInvalidToken       = errors.New("invalid admin token")
	ErrNotFound           = errors.New("report not found")
	ErrTooManyFiles       = errors.New("too many evidence files")
	ErrPayloadTooLarge    = errors.New("evidence file too large")
)

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
