package detector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/spikekit/algorithm"
	"github.com/kbukum/spikekit/errors"
	"github.com/kbukum/spikekit/logger"
	"github.com/kbukum/spikekit/observability"
)

const (
	modeArray  = "array"
	modeStream = "stream"
)

// Detector is a spike detection pipeline over raw items of type T.
type Detector[T any] struct {
	mu      sync.Mutex
	running atomic.Bool

	opts     Options
	settings Settings
	registry *algorithm.Registry

	strategy  algorithm.Strategy
	filters   *FilterChain
	x         XFunc[T]
	y         YFunc[T]
	transform TransformFunc[T]

	log     *logger.Logger
	metrics *observability.Metrics

	// pending holds a WithAlgorithm value until the registry is final.
	pending any
}

// Option configures a Detector at construction time.
type Option[T any] func(*Detector[T]) error

// WithX sets the X accessor.
func WithX[T any](fn XFunc[T]) Option[T] {
	return func(d *Detector[T]) error { return d.setX(fn) }
}

// WithY sets the Y accessor.
func WithY[T any](fn YFunc[T]) Option[T] {
	return func(d *Detector[T]) error { return d.setY(fn) }
}

// WithTransform sets the output transform.
func WithTransform[T any](fn TransformFunc[T]) Option[T] {
	return func(d *Detector[T]) error { return d.setTransform(fn) }
}

// WithAlgorithm selects the strategy. It takes the same values as
// SetAlgorithm and overrides the algorithm option.
func WithAlgorithm[T any](v any) Option[T] {
	return func(d *Detector[T]) error {
		if v == nil {
			return errors.TypeMismatch(KeyAlgorithm, "a strategy name or function", v)
		}
		d.pending = v
		return nil
	}
}

// WithFilter appends an extra predicate to the filter chain.
func WithFilter[T any](p Predicate) Option[T] {
	return func(d *Detector[T]) error { return d.addFilter(p) }
}

// WithRegistry resolves strategy names against r instead of
// algorithm.Default().
func WithRegistry[T any](r *algorithm.Registry) Option[T] {
	return func(d *Detector[T]) error {
		if r == nil {
			return errors.InvalidArgument("registry", "must not be nil")
		}
		d.registry = r
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger[T any](l *logger.Logger) Option[T] {
	return func(d *Detector[T]) error {
		if l == nil {
			return errors.InvalidArgument("logger", "must not be nil")
		}
		d.log = l
		return nil
	}
}

// WithMetrics sets the run metrics.
func WithMetrics[T any](m *observability.Metrics) Option[T] {
	return func(d *Detector[T]) error {
		d.metrics = m
		return nil
	}
}

// New creates a Detector from a partial option map and functional options.
// The options are resolved against their defaults, validated, and the
// selected strategy is bound before New returns, so configuration errors
// surface here rather than during a run.
func New[T any](opts map[string]any, options ...Option[T]) (*Detector[T], error) {
	resolved := Resolve(opts)
	settings, err := resolved.Settings()
	if err != nil {
		return nil, err
	}

	d := &Detector[T]{
		opts:      resolved,
		settings:  settings,
		registry:  algorithm.Default(),
		filters:   &FilterChain{},
		x:         IndexX[T],
		y:         NumericY[T],
		transform: PointTransform[T],
		log:       logger.Component("detector"),
	}
	d.filters.Add(MinHeight(settings.MinPeakHeight))

	for _, opt := range options {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	selected := d.pending
	if selected == nil {
		selected = settings.Algorithm
	}
	d.pending = nil
	if err := d.setAlgorithm(selected); err != nil {
		return nil, err
	}

	if d.metrics == nil {
		if m, err := observability.NewMetrics(observability.Meter("github.com/kbukum/spikekit/detector")); err == nil {
			d.metrics = m
		}
	}
	return d, nil
}

// Options returns a copy of the resolved options.
func (d *Detector[T]) Options() Options {
	return d.opts.Clone()
}

// Settings returns the typed recognized options.
func (d *Detector[T]) Settings() Settings {
	return d.settings
}

// Algorithm returns the active strategy.
func (d *Detector[T]) Algorithm() algorithm.Strategy {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.strategy
}

// Running reports whether a run is in flight.
func (d *Detector[T]) Running() bool {
	return d.running.Load()
}

// SetX replaces the X accessor.
func (d *Detector[T]) SetX(fn XFunc[T]) error {
	return d.configure("set x accessor", func() error { return d.setX(fn) })
}

// SetY replaces the Y accessor.
func (d *Detector[T]) SetY(fn YFunc[T]) error {
	return d.configure("set y accessor", func() error { return d.setY(fn) })
}

// SetTransform replaces the output transform.
func (d *Detector[T]) SetTransform(fn TransformFunc[T]) error {
	return d.configure("set transform", func() error { return d.setTransform(fn) })
}

// SetAlgorithm replaces the strategy. v may be a registered strategy name,
// an algorithm.Strategy, an algorithm.StrategyFunc or a plain
// func([]algorithm.Point) ([]int, error).
//
// An unknown name fails with CONFIGURATION_ERROR. Any other kind of value,
// nil included, fails with TYPE_MISMATCH.
func (d *Detector[T]) SetAlgorithm(v any) error {
	return d.configure("set algorithm", func() error { return d.setAlgorithm(v) })
}

// AddFilter appends a predicate to the OR-combined filter chain.
func (d *Detector[T]) AddFilter(p Predicate) error {
	return d.configure("add filter", func() error { return d.addFilter(p) })
}

func (d *Detector[T]) configure(op string, apply func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.RunInProgress(op)
	}
	return apply()
}

func (d *Detector[T]) setX(fn XFunc[T]) error {
	if fn == nil {
		return errors.InvalidArgument("x accessor", "must be a function")
	}
	d.x = fn
	return nil
}

func (d *Detector[T]) setY(fn YFunc[T]) error {
	if fn == nil {
		return errors.InvalidArgument("y accessor", "must be a function")
	}
	d.y = fn
	return nil
}

func (d *Detector[T]) setTransform(fn TransformFunc[T]) error {
	if fn == nil {
		return errors.InvalidArgument("transform", "must be a function")
	}
	d.transform = fn
	return nil
}

func (d *Detector[T]) addFilter(p Predicate) error {
	if p == nil {
		return errors.InvalidArgument("filter", "must be a function")
	}
	d.filters.Add(p)
	return nil
}

func (d *Detector[T]) setAlgorithm(v any) error {
	var s algorithm.Strategy
	switch a := v.(type) {
	case string:
		resolved, err := d.registry.Resolve(a, d.params())
		if err != nil {
			return err
		}
		s = resolved
	case algorithm.StrategyFunc:
		if a == nil {
			return errors.TypeMismatch(KeyAlgorithm, "a strategy name or function", v)
		}
		s = a
	case func([]algorithm.Point) ([]int, error):
		if a == nil {
			return errors.TypeMismatch(KeyAlgorithm, "a strategy name or function", v)
		}
		s = algorithm.StrategyFunc(a)
	case algorithm.Strategy:
		s = a
	default:
		return errors.TypeMismatch(KeyAlgorithm, "a strategy name or function", v)
	}
	d.strategy = s
	return nil
}

func (d *Detector[T]) params() algorithm.Params {
	return algorithm.Params{
		MinPeakDistance: d.settings.MinPeakDistance,
		MinPeakHeight:   d.settings.MinPeakHeight,
		Extra:           d.opts.Extra(),
	}
}

// runConfig is the configuration a run works from, copied when it starts.
type runConfig[T any] struct {
	strategy  algorithm.Strategy
	filters   *FilterChain
	x         XFunc[T]
	y         YFunc[T]
	transform TransformFunc[T]

	// minDistance sizes the stream window of strategies that declare none.
	minDistance int
}

// begin claims the run guard and snapshots the configuration.
func (d *Detector[T]) begin(op string) (*runConfig[T], error) {
	if !d.running.CompareAndSwap(false, true) {
		return nil, errors.RunInProgress(op)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return &runConfig[T]{
		strategy:    algorithm.Chain(algorithm.WithRecover(), algorithm.WithLogging(d.log))(d.strategy),
		filters:     d.filters.clone(),
		x:           d.x,
		y:           d.y,
		transform:   d.transform,
		minDistance: d.settings.MinPeakDistance,
	}, nil
}

func (d *Detector[T]) end() {
	d.running.Store(false)
}

// runStats is what a run reports when it finishes.
type runStats struct {
	mode   string
	items  int
	spikes int
	start  time.Time
}

// finish logs, measures and traces a completed run.
func (d *Detector[T]) finish(ctx context.Context, rc *runConfig[T], st runStats, err error) {
	elapsed := time.Since(st.start)
	name := rc.strategy.Name()
	log := d.log.WithContext(ctx)

	fields := logger.RunFields(st.items, st.spikes, elapsed)
	fields[logger.FieldAlgorithm] = name
	fields[logger.FieldOperation] = st.mode

	observability.Annotate(ctx,
		attribute.String(observability.AttrAlgorithm, name),
		attribute.Int(observability.AttrItems, st.items),
		attribute.Int(observability.AttrSpikes, st.spikes),
	)

	d.metrics.RecordItems(ctx, name, st.items)
	d.metrics.RecordSpikes(ctx, name, st.spikes)

	status := "ok"
	if err != nil {
		code := string(errors.ErrCodeRunFailure)
		if appErr, ok := errors.AsAppError(err); ok {
			code = string(appErr.Code)
		}
		status = code
		if errors.HasCode(err, errors.ErrCodeCancelled) {
			log.Debug("run cancelled", fields)
		} else {
			log.Error("run failed", logger.MergeWithError(fields, err))
			observability.Fail(ctx, err)
		}
		d.metrics.RecordError(ctx, st.mode, code)
	} else {
		log.Debug("run finished", fields)
	}
	d.metrics.RecordRun(ctx, st.mode, name, status, elapsed)
}

// withRunID tags ctx with a fresh run ID unless the caller already set one.
func withRunID(ctx context.Context) context.Context {
	if logger.RunIDFromContext(ctx) != "" {
		return ctx
	}
	return logger.ContextWithRunID(ctx, uuid.NewString())
}
