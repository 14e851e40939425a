package registry

import (
	"errors"
	"fmt"

	"github.com/roach88/automodel/internal/schema"
)

// ErrorCode categorizes registry errors.
type ErrorCode string

const (
	// ErrCodeUnknownTable indicates no model is registered for a table.
	ErrCodeUnknownTable ErrorCode = "UNKNOWN_TABLE"

	// ErrCodeMissingField indicates a required field was not supplied.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrCodeTypeMismatch indicates a value does not fit its declared type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// UnknownTableError is returned when a table has no registered model.
type UnknownTableError struct {
	Table string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("%s: table %q has no registered model", ErrCodeUnknownTable, e.Table)
}

// MissingFieldError is returned when a required field is absent and has no
// default.
type MissingFieldError struct {
	Table string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q (table=%s)", ErrCodeMissingField, e.Field, e.Table)
}

// TypeMismatchError is returned when a supplied value does not fit the
// field's declared type.
type TypeMismatchError struct {
	Table string
	Field string
	Want  schema.Type
	Value any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: field %q expects %s, got %T (table=%s)",
		ErrCodeTypeMismatch, e.Field, e.Want, e.Value, e.Table)
}

// IsUnknownTable reports whether err is, or wraps, an UnknownTableError.
func IsUnknownTable(err error) bool {
	var target *UnknownTableError
	return errors.As(err, &target)
}

// IsMissingField reports whether err is, or wraps, a MissingFieldError.
func IsMissingField(err error) bool {
	var target *MissingFieldError
	return errors.As(err, &target)
}

// IsTypeMismatch reports whether err is, or wraps, a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var target *TypeMismatchError
	return errors.As(err, &target)
}
