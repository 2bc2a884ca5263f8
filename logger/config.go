package logger

import "github.com/kbukum/spikekit/validation"

// Config contains logging configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

var (
	levels  = []string{"trace", "debug", "info", "warn", "error", "fatal", "disabled"}
	formats = []string{FormatJSON, FormatConsole, FormatPretty}
)

// Validate rejects levels zerolog cannot parse and unknown formats.
func (c *Config) Validate() error {
	return validation.New().
		OneOf("logging.level", c.Level, levels...).
		OneOf("logging.format", c.Format, formats...).
		Err()
}
