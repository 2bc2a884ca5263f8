package validation

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kbukum/spikekit/errors"
)

// FieldError is one failed check, reported under the field's option or
// config key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// Validator accumulates failures from hand-written checks that struct tags
// cannot express. Every check returns the receiver so calls chain.
type Validator struct {
	failed []FieldError
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

// Check records field as failing with the formatted message unless ok.
func (v *Validator) Check(ok bool, field, format string, args ...any) *Validator {
	if !ok {
		v.failed = append(v.failed, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	return v
}

// Required fails blank strings.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "is required")
}

func (v *Validator) Min(field string, value, floor int) *Validator {
	return v.Check(value >= floor, field, "must be at least %d", floor)
}

// Finite fails NaN and both infinities.
func (v *Validator) Finite(field string, value float64) *Validator {
	return v.Check(!math.IsNaN(value) && !math.IsInf(value, 0), field, "must be a finite number")
}

// OneOf fails any value outside allowed, including the empty string.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	return v.Check(slices.Contains(allowed, value), field,
		"must be one of [%s] (got: %q)", strings.Join(allowed, ", "), value)
}

// Errors returns the failures recorded so far.
func (v *Validator) Errors() []FieldError { return v.failed }

// Err returns nil when every check passed and an INVALID_ARGUMENT
// *errors.AppError otherwise.
func (v *Validator) Err() error {
	if len(v.failed) == 0 {
		return nil
	}
	return report(v.failed)
}

// report folds field failures into one AppError; Details["fields"] keeps
// them individually for callers that render their own messages.
func report(failed []FieldError) *errors.AppError {
	parts := make([]string, len(failed))
	for i, f := range failed {
		parts[i] = f.String()
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", failed)
}
