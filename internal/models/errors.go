package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by every component. Callers wrap them with context and
// compare with errors.Is.
var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not found")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrMalformedOutput         = errors.New("malformed collaborator output")
)

// Validationf builds an ErrValidation carrying a formatted reason.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound carrying a formatted reason.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
