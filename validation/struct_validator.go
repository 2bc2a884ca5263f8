package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/spikekit/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields under their option names (mapstructure tag) so
		// messages match what callers put in their option maps.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"mapstructure", "yaml"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}

// Validate runs the `validate` struct tags on s, for example
// `validate:"required,gte=0"`, and reports every failing field at once.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var tagErrs validator.ValidationErrors
	if !stderrors.As(err, &tagErrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	failed := make([]FieldError, len(tagErrs))
	for i, e := range tagErrs {
		failed[i] = FieldError{Field: e.Field(), Message: describe(e)}
	}
	return report(failed)
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return "must be at least " + e.Param()
	case "lte", "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "excludesall":
		return "must not contain any of: " + e.Param()
	default:
		return "is invalid"
	}
}
