package domain

import (
	"errors"
	"strings"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrSlotFull      = errors.New("pickup slot is full")
	ErrCorruptState  = errors.New("stored state is corrupt")
	ErrNoData        = errors.New("no stored data")
	ErrInvalidStatus = errors.New("invalid order status")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned for rejected input. errors.Is(err, ErrValidation) holds for it.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) error {
	return ValidationErrors{{Field: field, Message: message}}
}
