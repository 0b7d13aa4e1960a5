package common

import (
	"fmt"
	"strings"
	"time"
)

// FieldError describes one validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator collects field errors so callers see every offending field,
// not just the first one.
type Validator struct {
	errors []FieldError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{errors: make([]FieldError, 0)}
}

// Require records an error when the string value is empty or whitespace.
func (v *Validator) Require(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors = append(v.errors, FieldError{Field: field, Message: "is required"})
	}
	return v
}

// RequireTime records an error when the time value is the zero time.
func (v *Validator) RequireTime(field string, value time.Time) *Validator {
	if value.IsZero() {
		v.errors = append(v.errors, FieldError{Field: field, Message: "is required"})
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all collected field errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Fields returns just the offending field names, in check order.
func (v *Validator) Fields() []string {
	out := make([]string, len(v.errors))
	for i, e := range v.errors {
		out[i] = e.Field
	}
	return out
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}
	msgs := make([]string, len(v.errors))
	for i, e := range v.errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
