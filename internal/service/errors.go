package service

import (
	"errors"
	"strings"
)

// Sentinel errors returned by the organization and auth services.
var (
	ErrDuplicateOrganization = errors.New("organization already exists")
	ErrDuplicateAdmin        = errors.New("admin email already registered")
	ErrNotFound              = errors.New("organization not found")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrForbidden             = errors.New("token does not grant access to this organization")
	ErrStorage               = errors.New("storage error")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input fails shape validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// orNil returns nil when no field errors were collected.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
