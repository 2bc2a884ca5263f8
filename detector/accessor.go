package detector

import (
	"github.com/spf13/cast"

	"github.com/kbukum/spikekit/algorithm"
)

// Spike is the caller-visible output of a run. Unless a transform is set it
// holds an algorithm.Point.
type Spike = any

// XFunc derives the X value of the item at index.
type XFunc[T any] func(item T, index int) (float64, error)

// YFunc derives the Y value of an item.
type YFunc[T any] func(item T) (float64, error)

// TransformFunc shapes an accepted point into the Spike handed to callers.
type TransformFunc[T any] func(p algorithm.Point, item T, index int) (Spike, error)

// IndexX uses the item's position as its X value.
func IndexX[T any](_ T, index int) (float64, error) {
	return float64(index), nil
}

// NumericY converts the item itself to a number. Any numeric kind and
// numeric strings are accepted.
func NumericY[T any](item T) (float64, error) {
	return cast.ToFloat64E(any(item))
}

// PointTransform returns the point unchanged.
func PointTransform[T any](p algorithm.Point, _ T, _ int) (Spike, error) {
	return p, nil
}
