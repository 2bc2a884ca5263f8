// Package validation provides input validation for detector settings and
// CLI configuration.
//
// It supports both struct tag validation (using the validator library) and
// chained programmatic checks. Both report failures as an
// INVALID_ARGUMENT errors.AppError whose Details carry the per-field errors.
//
// # Struct Tag Validation
//
//	type Settings struct {
//	    Algorithm       string `mapstructure:"algorithm" validate:"required"`
//	    MinPeakDistance int    `mapstructure:"minPeakDistance" validate:"gte=0"`
//	}
//	err := validation.Validate(settings)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    Check(lag > 0, "lag", "must be positive").
//	    OneOf("format", format, "json", "yaml").
//	    Err()
package validation
