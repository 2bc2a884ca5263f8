// Package observability wires OpenTelemetry tracing and metrics for
// detection runs.
//
// Every run records how many items it consumed, how many spikes it emitted,
// how long it took, and why it failed. Instruments bind to the global otel
// providers, so they are no-ops until Setup (or a test provider) installs
// real ones:
//
//	p, err := observability.Setup(ctx, observability.DefaultConfig("spikes"))
//	defer p.Shutdown(ctx)
//	metrics, err := observability.NewMetrics(p.Meter.Meter("spikes"))
package observability
