package library

import (
	"errors"
	"fmt"
)

// Stable sentinel errors. The API layer maps these to HTTP statuses and
// clients branch on the messages, so the strings must not change.
var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientCopies = errors.New("no copies of this book are available")
	ErrAlreadyBorrowed    = errors.New("you already have this book on loan")
	ErrNotBorrowed        = errors.New("you do not have this book on loan")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUnauthenticated    = errors.New("authentication required")
)

// ValidationError is a field-level input failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
