package algorithm

import (
	"fmt"
	"time"

	"github.com/kbukum/spikekit/logger"
)

// Middleware wraps a Strategy with cross-cutting behavior.
type Middleware func(Strategy) Strategy

// Chain composes middlewares. Chain(a, b)(s) is equivalent to a(b(s)).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Strategy) Strategy {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// wrapped forwards Name to the inner strategy and exposes it through
// Unwrap, so WindowOf sees the inner strategy's window.
type wrapped struct {
	inner  Strategy
	detect func([]Point) ([]int, error)
}

func (w *wrapped) Name() string                         { return w.inner.Name() }
func (w *wrapped) Unwrap() Strategy                     { return w.inner }
func (w *wrapped) Detect(points []Point) ([]int, error) { return w.detect(points) }

// WithRecover converts a panic inside Detect into an error.
func WithRecover() Middleware {
	return func(inner Strategy) Strategy {
		return &wrapped{inner: inner, detect: func(points []Point) (peaks []int, err error) {
			defer func() {
				if r := recover(); r != nil {
					peaks, err = nil, fmt.Errorf("strategy %s panicked: %v", inner.Name(), r)
				}
			}()
			return inner.Detect(points)
		}}
	}
}

// WithLogging logs each Detect call at debug level.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner Strategy) Strategy {
		return &wrapped{inner: inner, detect: func(points []Point) ([]int, error) {
			start := time.Now()
			peaks, err := inner.Detect(points)
			fields := map[string]interface{}{
				logger.FieldAlgorithm: inner.Name(),
				"points":              len(points),
				"peaks":               len(peaks),
				logger.FieldDuration:  time.Since(start).Milliseconds(),
			}
			if err != nil {
				log.Error("strategy detect failed", logger.MergeWithError(fields, err))
			} else {
				log.Debug("strategy detect ok", fields)
			}
			return peaks, err
		}}
	}
}
