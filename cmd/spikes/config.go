package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kbukum/spikekit/algorithm"
	"github.com/kbukum/spikekit/config"
	"github.com/kbukum/spikekit/detector"
	"github.com/kbukum/spikekit/validation"
	"github.com/kbukum/spikekit/version"
)

const serviceName = "spikes"

// CLIConfig is the configuration of the spikes command. Values come, lowest
// first, from flag defaults, config.yml, the environment and explicit flags.
type CLIConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Detector  DetectorConfig  `yaml:"detector" mapstructure:"detector"`
	Input     InputConfig     `yaml:"input" mapstructure:"input"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// DetectorConfig holds detector options under snake_case keys; viper folds
// key case, so the camelCase option names cannot be used directly.
type DetectorConfig struct {
	Algorithm                string  `yaml:"algorithm" mapstructure:"algorithm"`
	MinPeakDistance          int     `yaml:"min_peak_distance" mapstructure:"min_peak_distance" validate:"gte=0"`
	MinPeakHeight            float64 `yaml:"min_peak_height" mapstructure:"min_peak_height"`
	TransformedValueProperty string  `yaml:"transformed_value_property" mapstructure:"transformed_value_property"`

	// Threshold strategy tuning. Zero leaves the strategy default.
	Lag             int     `yaml:"lag" mapstructure:"lag" validate:"gte=0"`
	ThresholdFactor float64 `yaml:"threshold_factor" mapstructure:"threshold_factor" validate:"gte=0"`
}

// Options renders the section as a detector option map.
func (c DetectorConfig) Options() map[string]any {
	opts := map[string]any{
		detector.KeyAlgorithm:                c.Algorithm,
		detector.KeyMinPeakDistance:          c.MinPeakDistance,
		detector.KeyMinPeakHeight:            c.MinPeakHeight,
		detector.KeyTransformedValueProperty: c.TransformedValueProperty,
	}
	if c.Lag > 0 {
		opts[algorithm.OptionLag] = c.Lag
	}
	if c.ThresholdFactor > 0 {
		opts[algorithm.OptionThresholdFactor] = c.ThresholdFactor
	}
	return opts
}

// InputConfig selects how values are read from each line.
type InputConfig struct {
	// Marker, when set, is searched in each line and the number after it is
	// the value. Otherwise the value is whitespace field Field (0-based).
	Marker string `yaml:"marker" mapstructure:"marker"`
	Field  int    `yaml:"field" mapstructure:"field" validate:"gte=0"`
	Follow bool   `yaml:"follow" mapstructure:"follow"`
}

// OutputConfig controls how spikes are printed.
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format" validate:"oneof=json yaml"`
	Summary bool   `yaml:"summary" mapstructure:"summary"`
}

// TelemetryConfig enables OTLP export when an endpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate   float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// Enabled reports whether telemetry should be exported.
func (c TelemetryConfig) Enabled() bool { return c.OTLPEndpoint != "" }

// ApplyDefaults fills unset values.
func (c *CLIConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Detector.Algorithm == "" {
		c.Detector.Algorithm = detector.DefaultAlgorithm
	}
	if c.Detector.TransformedValueProperty == "" {
		c.Detector.TransformedValueProperty = detector.DefaultTransformedValueProperty
	}
	if c.Output.Format == "" {
		c.Output.Format = formatJSON
	}
}

// Validate checks the service section, then the command sections.
func (c *CLIConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	for name, section := range map[string]any{
		"detector":  c.Detector,
		"input":     c.Input,
		"output":    c.Output,
		"telemetry": c.Telemetry,
	} {
		if err := validation.Validate(section); err != nil {
			return fmt.Errorf("config.%s: %w", name, err)
		}
	}
	return nil
}

// detectFlags maps flag names to config keys.
var detectFlags = map[string]string{
	"algorithm":         "detector.algorithm",
	"min-peak-distance": "detector.min_peak_distance",
	"min-peak-height":   "detector.min_peak_height",
	"value-property":    "detector.transformed_value_property",
	"lag":               "detector.lag",
	"threshold-factor":  "detector.threshold_factor",
	"marker":            "input.marker",
	"field":             "input.field",
	"follow":            "input.follow",
	"format":            "output.format",
	"summary":           "output.summary",
	"otlp-endpoint":     "telemetry.otlp_endpoint",
	"otlp-insecure":     "telemetry.insecure",
	"log-level":         "logging.level",
	"log-format":        "logging.format",
}

// configDefaults seeds keys that flags do not cover.
var configDefaults = map[string]any{
	"name":                  serviceName,
	"telemetry.sample_rate": 1.0,
}

func newDetectFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("detect", pflag.ContinueOnError)
	fs.String("config", "", "path to config.yml")
	fs.String("env-file", "", "path to a .env file")

	fs.String("algorithm", detector.DefaultAlgorithm, "strategy name (default, distance, threshold)")
	fs.Int("min-peak-distance", detector.DefaultMinPeakDistance, "minimum index distance between spikes (distance strategy)")
	fs.Float64("min-peak-height", detector.DefaultMinPeakHeight, "minimum spike value")
	fs.String("value-property", detector.DefaultTransformedValueProperty, "spike property read by the summary")
	fs.Int("lag", 0, "threshold strategy window (0 keeps its default)")
	fs.Float64("threshold-factor", 0, "threshold strategy deviation factor (0 keeps its default)")

	fs.String("marker", "", "text preceding the value on each line")
	fs.Int("field", 0, "0-based whitespace field holding the value when no marker is set")
	fs.Bool("follow", false, "keep reading as the file grows")

	fs.String("format", formatJSON, "output format: json or yaml")
	fs.Bool("summary", false, "print a value summary to stderr when done")

	fs.String("otlp-endpoint", "", "OTLP/HTTP endpoint for traces and metrics")
	fs.Bool("otlp-insecure", true, "use plain HTTP for OTLP")
	fs.String("log-level", "info", "log level")
	fs.String("log-format", "console", "log format: json or console")
	return fs
}

// loadConfig resolves the command configuration from a parsed flag set.
func loadConfig(fs *pflag.FlagSet) (*CLIConfig, error) {
	opts := []config.LoaderOption{
		config.WithFlags(fs, detectFlags),
		config.WithDefaults(configDefaults),
	}
	if path, _ := fs.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if path, _ := fs.GetString("env-file"); path != "" {
		opts = append(opts, config.WithEnvFile(path))
	}

	cfg := &CLIConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
