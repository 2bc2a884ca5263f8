package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// TypeMismatch creates an AppError for a value whose shape does not match
// what the field expects.
func TypeMismatch(field, expected string, got any) *AppError {
	return &AppError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("%s must be %s (got %T)", field, expected, got),
		Details: map[string]any{"field": field, "expected": expected},
	}
}

// InvalidArgument creates an AppError for an argument that cannot be used.
func InvalidArgument(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Details: details,
	}
}

// Validation creates an AppError for failed struct validation.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: message}
}

// UnknownStrategy creates an AppError for a strategy name that is not registered.
func UnknownStrategy(name string) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf("unknown algorithm %q", name),
		Details: map[string]any{"algorithm": name},
	}
}

// RunFailure wraps a failure raised by a stage of a run.
func RunFailure(stage string, index int, cause error) *AppError {
	details := map[string]any{"stage": stage}
	if index >= 0 {
		details["index"] = index
	}
	return &AppError{
		Code:    ErrCodeRunFailure,
		Message: fmt.Sprintf("%s failed", stage),
		Details: details,
		Cause:   cause,
	}
}

// RunInProgress creates an AppError for an operation rejected because a run is active.
func RunInProgress(operation string) *AppError {
	return &AppError{
		Code:    ErrCodeRunInProgress,
		Message: fmt.Sprintf("cannot %s while a run is in progress", operation),
		Details: map[string]any{"operation": operation},
	}
}

// Cancelled creates an AppError for a run stopped by its caller.
func Cancelled(cause error) *AppError {
	return &AppError{Code: ErrCodeCancelled, Message: "run cancelled", Cause: cause}
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts err into an AppError. Nil stays nil, an AppError anywhere in
// the chain is returned as-is, and any other error becomes a RUN_FAILURE for
// the given stage.
func Wrap(err error, stage string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return RunFailure(stage, -1, err)
}
