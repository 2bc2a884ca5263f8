package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" || !cfg.Insecure {
		t.Errorf("expected insecure local endpoint, got %q insecure=%v", cfg.Endpoint, cfg.Insecure)
	}
	if cfg.SampleRate != 1.0 || cfg.Interval != 15*time.Second {
		t.Errorf("unexpected sampling %v / interval %v", cfg.SampleRate, cfg.Interval)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordItems(ctx, "default", 10)
	metrics.RecordSpikes(ctx, "default", 2)
	metrics.RecordRun(ctx, "array", "default", "ok", 5*time.Millisecond)
	metrics.RecordError(ctx, "stream", "RUN_FAILURE")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordItems(ctx, "default", 1)
	m.RecordSpikes(ctx, "default", 1)
	m.RecordRun(ctx, "array", "default", "ok", time.Millisecond)
	m.RecordError(ctx, "array", "RUN_FAILURE")
}

func TestMetrics_Recorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordItems(ctx, "default", 10)
	metrics.RecordItems(ctx, "default", 5)
	metrics.RecordSpikes(ctx, "default", 2)
	metrics.RecordRun(ctx, "array", "default", "ok", 20*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	sums := map[string]int64{}
	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			seen[m.Name] = true
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	if sums[MetricItemsTotal] != 15 {
		t.Errorf("expected %s=15, got %d", MetricItemsTotal, sums[MetricItemsTotal])
	}
	if sums[MetricSpikesTotal] != 2 {
		t.Errorf("expected %s=2, got %d", MetricSpikesTotal, sums[MetricSpikesTotal])
	}
	if sums[MetricRunsTotal] != 1 {
		t.Errorf("expected %s=1, got %d", MetricRunsTotal, sums[MetricRunsTotal])
	}
	if !seen[MetricRunDuration] {
		t.Errorf("expected %s to be recorded", MetricRunDuration)
	}
	if seen[MetricErrorsTotal] {
		t.Errorf("expected no %s data points", MetricErrorsTotal)
	}
}

func TestStartSpan_RecordsAttributesAndError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanArrayRun)
	Annotate(ctx, attribute.String(AttrAlgorithm, "default"), attribute.Int(AttrItems, 10))
	Fail(ctx, fmt.Errorf("boom"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != SpanArrayRun {
		t.Errorf("expected span name %q, got %q", SpanArrayRun, s.Name())
	}
	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[AttrAlgorithm] != "default" || attrs[AttrItems] != "10" {
		t.Errorf("unexpected attributes: %v", attrs)
	}
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status())
	}
	if len(s.Events()) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}
}

func TestAnnotate_NoSpan(t *testing.T) {
	// Must not panic without an active span.
	Annotate(context.Background(), attribute.String("k", "v"))
	Fail(context.Background(), fmt.Errorf("x"))
}

func TestSetup(t *testing.T) {
	prevT, prevM := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevT)
		otel.SetMeterProvider(prevM)
	}()

	cfg := DefaultConfig("test")
	cfg.SampleRate = 0.5
	p, err := Setup(context.Background(), cfg)
	if err != nil {
		t.Skipf("exporters unavailable: %v", err)
	}
	if otel.GetTracerProvider() != p.Tracer {
		t.Error("expected the tracer provider to be installed globally")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}
