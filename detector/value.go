package detector

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/kbukum/spikekit/algorithm"
	"github.com/kbukum/spikekit/errors"
)

// Value reads the transformedValueProperty of a spike, so consumers can
// rank or plot spikes without knowing what the transform produced. Points,
// maps and structs are supported; struct fields match by mapstructure tag
// or, case-insensitively, by name.
func (d *Detector[T]) Value(s Spike) (float64, error) {
	return valueOf(s, d.settings.TransformedValueProperty)
}

func valueOf(s Spike, property string) (float64, error) {
	switch v := s.(type) {
	case algorithm.Point:
		return pointValue(v, property)
	case *algorithm.Point:
		if v == nil {
			return 0, errors.InvalidArgument("spike", "is nil")
		}
		return pointValue(*v, property)
	case map[string]any:
		return fieldValue(v, property)
	case nil:
		return 0, errors.InvalidArgument("spike", "is nil")
	}

	fields := make(map[string]any)
	if err := mapstructure.Decode(s, &fields); err != nil {
		return 0, errors.TypeMismatch("spike", "a point, map or struct", s).WithCause(err)
	}
	return fieldValue(fields, property)
}

func pointValue(p algorithm.Point, property string) (float64, error) {
	switch property {
	case "x":
		return p.X, nil
	case "y":
		return p.Y, nil
	}
	return 0, errors.InvalidArgument(KeyTransformedValueProperty, "points only have x and y, not "+property)
}

func fieldValue(fields map[string]any, property string) (float64, error) {
	raw, ok := fields[property]
	if !ok {
		for k, v := range fields {
			if strings.EqualFold(k, property) {
				raw, ok = v, true
				break
			}
		}
	}
	if !ok {
		return 0, errors.InvalidArgument(KeyTransformedValueProperty, "spike has no field "+property)
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, errors.TypeMismatch(property, "a number", raw).WithCause(err)
	}
	return f, nil
}
