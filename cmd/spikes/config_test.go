package main

import (
	"testing"

	"github.com/kbukum/spikekit/algorithm"
	"github.com/kbukum/spikekit/detector"
)

func TestCLIConfig_ApplyDefaults(t *testing.T) {
	cfg := &CLIConfig{}
	cfg.ApplyDefaults()

	if cfg.Name != serviceName {
		t.Errorf("expected name %q, got %q", serviceName, cfg.Name)
	}
	if cfg.Version == "" {
		t.Error("expected version from build info")
	}
	if cfg.Detector.Algorithm != detector.DefaultAlgorithm {
		t.Errorf("expected default algorithm, got %q", cfg.Detector.Algorithm)
	}
	if cfg.Detector.TransformedValueProperty != "y" {
		t.Errorf("expected value property y, got %q", cfg.Detector.TransformedValueProperty)
	}
	if cfg.Output.Format != formatJSON {
		t.Errorf("expected json output, got %q", cfg.Output.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate, got %v", err)
	}
}

func TestCLIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *CLIConfig)
		wantErr bool
	}{
		{"defaults", func(c *CLIConfig) {}, false},
		{"yaml output", func(c *CLIConfig) { c.Output.Format = formatYAML }, false},
		{"unknown output", func(c *CLIConfig) { c.Output.Format = "xml" }, true},
		{"negative field", func(c *CLIConfig) { c.Input.Field = -1 }, true},
		{"negative distance", func(c *CLIConfig) { c.Detector.MinPeakDistance = -3 }, true},
		{"sample rate above one", func(c *CLIConfig) { c.Telemetry.SampleRate = 2 }, true},
		{"bad environment", func(c *CLIConfig) { c.Environment = "moon" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &CLIConfig{}
			cfg.ApplyDefaults()
			tc.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDetectorConfig_Options(t *testing.T) {
	c := DetectorConfig{
		Algorithm:                "threshold",
		MinPeakDistance:          4,
		MinPeakHeight:            1.5,
		TransformedValueProperty: "line",
	}

	opts := c.Options()
	if opts[detector.KeyAlgorithm] != "threshold" || opts[detector.KeyMinPeakDistance] != 4 ||
		opts[detector.KeyMinPeakHeight] != 1.5 || opts[detector.KeyTransformedValueProperty] != "line" {
		t.Errorf("unexpected options %v", opts)
	}
	if _, ok := opts[algorithm.OptionLag]; ok {
		t.Error("zero lag must leave the strategy default")
	}

	c.Lag, c.ThresholdFactor = 8, 2.5
	opts = c.Options()
	if opts[algorithm.OptionLag] != 8 || opts[algorithm.OptionThresholdFactor] != 2.5 {
		t.Errorf("expected threshold tuning, got %v", opts)
	}

	s, err := detector.Resolve(opts).Settings()
	if err != nil {
		t.Fatalf("options must resolve, got %v", err)
	}
	if s.MinPeakDistance != 4 || s.TransformedValueProperty != "line" {
		t.Errorf("unexpected settings %+v", s)
	}
}
