// Package apperr defines the error kinds shared by the store, auth and api
// layers. Callers match them with errors.Is.
package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a username is already taken.
	ErrConflict = errors.New("username already exists")

	// ErrAuthentication covers both unknown usernames and wrong passwords.
	ErrAuthentication = errors.New("invalid username or password")

	// ErrAuthorization covers malformed, forged and expired tokens alike.
	ErrAuthorization = errors.New("invalid or missing token")

	// ErrNotFound covers both missing rows and rows owned by another dealer.
	ErrNotFound = errors.New("not found")
)

// FieldError describes a single violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every constraint an input violated.
type ValidationError struct {
	Fields []FieldError
}

// Validation builds a *ValidationError from the given field errors.
func Validation(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
