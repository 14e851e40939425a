package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotInitialized indicates a table operation before Use.
	ErrCodeNotInitialized ErrorCode = "NOT_INITIALIZED"

	// ErrCodeMissingArgument indicates an action was called without a
	// required option.
	ErrCodeMissingArgument ErrorCode = "MISSING_ARGUMENT"

	// ErrCodeUnsupportedAction indicates an action name Execute does not
	// route.
	ErrCodeUnsupportedAction ErrorCode = "UNSUPPORTED_ACTION"

	// ErrCodeInvalidArgument indicates a target of the wrong kind.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// NotInitializedError is returned by table operations before Use.
type NotInitializedError struct {
	Table string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("%s: call Use before operating on table %q", ErrCodeNotInitialized, e.Table)
}

// MissingArgumentError is returned when an action lacks a required option,
// such as update without data.
type MissingArgumentError struct {
	Action   Action
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s: %s requires %s", ErrCodeMissingArgument, e.Action, e.Argument)
}

// UnsupportedActionError is returned for action names Execute does not know.
type UnsupportedActionError struct {
	Action Action
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("%s: %q", ErrCodeUnsupportedAction, string(e.Action))
}

// InvalidArgumentError is returned when the target does not fit the action:
// a non-mapping for create or a non-integer id for get, update and delete.
type InvalidArgumentError struct {
	Action  Action
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCodeInvalidArgument, e.Action, e.Message)
}

// IsNotInitialized reports whether err is, or wraps, a NotInitializedError.
func IsNotInitialized(err error) bool {
	var target *NotInitializedError
	return errors.As(err, &target)
}

// IsMissingArgument reports whether err is, or wraps, a MissingArgumentError.
func IsMissingArgument(err error) bool {
	var target *MissingArgumentError
	return errors.As(err, &target)
}

// IsUnsupportedAction reports whether err is, or wraps, an
// UnsupportedActionError.
func IsUnsupportedAction(err error) bool {
	var target *UnsupportedActionError
	return errors.As(err, &target)
}

// IsInvalidArgument reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}
