package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by detection runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	itemsTotal  metric.Int64Counter
	spikesTotal metric.Int64Counter
	runDuration metric.Float64Histogram
	runsTotal   metric.Int64Counter
	errorsTotal metric.Int64Counter
}

// Metric names.
const (
	MetricItemsTotal  = "spikes.items.total"
	MetricSpikesTotal = "spikes.emitted.total"
	MetricRunDuration = "spikes.run.duration"
	MetricRunsTotal   = "spikes.runs.total"
	MetricErrorsTotal = "spikes.errors.total"
)

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	itemsTotal, err := meter.Int64Counter(MetricItemsTotal,
		metric.WithDescription("Raw items consumed by detection runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItemsTotal, err)
	}

	spikesTotal, err := meter.Int64Counter(MetricSpikesTotal,
		metric.WithDescription("Spikes delivered to callers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricSpikesTotal, err)
	}

	runDuration, err := meter.Float64Histogram(MetricRunDuration,
		metric.WithDescription("Duration of detection runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRunDuration, err)
	}

	runsTotal, err := meter.Int64Counter(MetricRunsTotal,
		metric.WithDescription("Detection runs by mode and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRunsTotal, err)
	}

	errorsTotal, err := meter.Int64Counter(MetricErrorsTotal,
		metric.WithDescription("Run failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrorsTotal, err)
	}

	return &Metrics{
		itemsTotal:  itemsTotal,
		spikesTotal: spikesTotal,
		runDuration: runDuration,
		runsTotal:   runsTotal,
		errorsTotal: errorsTotal,
	}, nil
}

// RecordItems adds n consumed items.
func (m *Metrics) RecordItems(ctx context.Context, algorithm string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.itemsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(AttrAlgorithm, algorithm)))
}

// RecordSpikes adds n delivered spikes.
func (m *Metrics) RecordSpikes(ctx context.Context, algorithm string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.spikesTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(AttrAlgorithm, algorithm)))
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, mode, algorithm, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrMode, mode),
		attribute.String(AttrAlgorithm, algorithm),
		attribute.String(AttrStatus, status),
	)
	m.runsTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordError records a run failure by error code.
func (m *Metrics) RecordError(ctx context.Context, mode, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrMode, mode),
		attribute.String(AttrCode, code),
	))
}
