package detector

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/spikekit/errors"
	"github.com/kbukum/spikekit/validation"
)

// Recognized option keys.
const (
	KeyAlgorithm                = "algorithm"
	KeyMinPeakDistance          = "minPeakDistance"
	KeyMinPeakHeight            = "minPeakHeight"
	KeyTransformedValueProperty = "transformedValueProperty"
)

// Option defaults.
const (
	DefaultAlgorithm                = "default"
	DefaultMinPeakDistance          = 30
	DefaultMinPeakHeight            = 0.0
	DefaultTransformedValueProperty = "y"
)

// Options is a resolved option map. Every recognized key is present;
// unrecognized keys are carried through untouched.
type Options map[string]any

// Settings is the typed view of the recognized options.
type Settings struct {
	Algorithm                string  `mapstructure:"algorithm" validate:"required,excludesall=/\\"`
	MinPeakDistance          int     `mapstructure:"minPeakDistance" validate:"gte=0"`
	MinPeakHeight            float64 `mapstructure:"minPeakHeight"`
	TransformedValueProperty string  `mapstructure:"transformedValueProperty" validate:"required"`
}

// Defaults returns the default options.
func Defaults() Options {
	return Options{
		KeyAlgorithm:                DefaultAlgorithm,
		KeyMinPeakDistance:          DefaultMinPeakDistance,
		KeyMinPeakHeight:            DefaultMinPeakHeight,
		KeyTransformedValueProperty: DefaultTransformedValueProperty,
	}
}

// Resolve fills every recognized option missing from user with its default.
// Values the caller supplied are never replaced, and unknown keys are copied
// as-is. Resolution does not validate anything; see Options.Settings.
func Resolve(user map[string]any) Options {
	out := Defaults()
	for k, v := range user {
		out[k] = v
	}
	return out
}

func isRecognized(key string) bool {
	switch key {
	case KeyAlgorithm, KeyMinPeakDistance, KeyMinPeakHeight, KeyTransformedValueProperty:
		return true
	}
	return false
}

// Get returns the raw value stored under key.
func (o Options) Get(key string) (any, bool) {
	v, ok := o[key]
	return v, ok
}

// Extra returns a copy of the unrecognized keys.
func (o Options) Extra() map[string]any {
	extra := make(map[string]any)
	for k, v := range o {
		if !isRecognized(k) {
			extra[k] = v
		}
	}
	return extra
}

// Clone returns a shallow copy of o.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Settings decodes and validates the recognized options.
//
// A value of the wrong shape (a string where a number belongs, a fractional
// minPeakDistance) fails with TYPE_MISMATCH. Out-of-range values, including
// a non-finite minPeakHeight, fail with INVALID_ARGUMENT.
func (o Options) Settings() (Settings, error) {
	if err := checkShapes(o); err != nil {
		return Settings{}, err
	}

	var s Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &s,
		TagName: "mapstructure",
	})
	if err != nil {
		return Settings{}, errors.New(errors.ErrCodeConfiguration, "building options decoder").WithCause(err)
	}
	if err := dec.Decode(map[string]any(o)); err != nil {
		return Settings{}, errors.New(errors.ErrCodeTypeMismatch, "decoding options").WithCause(err)
	}

	if err := validation.New().Finite(KeyMinPeakHeight, s.MinPeakHeight).Err(); err != nil {
		return Settings{}, err
	}
	if err := validation.Validate(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// checkShapes rejects values the decoder would otherwise coerce or
// silently truncate.
func checkShapes(o Options) error {
	if _, ok := o[KeyAlgorithm].(string); !ok {
		return errors.TypeMismatch(KeyAlgorithm, "a string", o[KeyAlgorithm])
	}
	if _, ok := o[KeyTransformedValueProperty].(string); !ok {
		return errors.TypeMismatch(KeyTransformedValueProperty, "a string", o[KeyTransformedValueProperty])
	}

	switch f, kind := numberOf(o[KeyMinPeakDistance]); kind {
	case numInt:
	case numFloat:
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return errors.TypeMismatch(KeyMinPeakDistance, "an integer", o[KeyMinPeakDistance])
		}
	default:
		return errors.TypeMismatch(KeyMinPeakDistance, "an integer", o[KeyMinPeakDistance])
	}

	if _, kind := numberOf(o[KeyMinPeakHeight]); kind == numNone {
		return errors.TypeMismatch(KeyMinPeakHeight, "a number", o[KeyMinPeakHeight])
	}
	return nil
}

type numKind int

const (
	numNone numKind = iota
	numInt
	numFloat
)

// numberOf classifies v as an integer, a float or neither. json.Number is
// accepted since option maps often come straight out of a JSON document.
func numberOf(v any) (float64, numKind) {
	if n, ok := v.(json.Number); ok {
		if _, err := n.Int64(); err == nil {
			return 0, numInt
		}
		f, err := n.Float64()
		if err != nil {
			return 0, numNone
		}
		return f, numFloat
	}
	if v == nil {
		return 0, numNone
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 0, numInt
	case reflect.Float32, reflect.Float64:
		return rv.Float(), numFloat
	}
	return 0, numNone
}
