package main

import (
	"context"

	"github.com/kbukum/spikekit/bootstrap"
	"github.com/kbukum/spikekit/observability"
)

// telemetry holds the detector metrics once exporters are running.
type telemetry struct {
	metrics *observability.Metrics
}

// install registers exporter setup and shutdown on app. It is a no-op
// when no endpoint is configured.
func (t *telemetry) install(app *bootstrap.App[*CLIConfig]) {
	cfg := app.Cfg
	if !cfg.Telemetry.Enabled() {
		return
	}

	app.OnStart(func(ctx context.Context) error {
		oc := observability.DefaultConfig(cfg.Name)
		oc.ServiceVersion = cfg.Version
		oc.Environment = cfg.Environment
		oc.Endpoint = cfg.Telemetry.OTLPEndpoint
		oc.Insecure = cfg.Telemetry.Insecure
		oc.SampleRate = cfg.Telemetry.SampleRate

		providers, err := observability.Setup(ctx, oc)
		if err != nil {
			return err
		}
		app.OnStop(providers.Shutdown)

		t.metrics, err = observability.NewMetrics(providers.Meter.Meter("github.com/kbukum/spikekit/cmd/spikes"))
		return err
	})
}
