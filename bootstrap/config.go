package bootstrap

import "github.com/kbukum/spikekit/config"

// Config constrains App's config type. Structs that embed
// config.ServiceConfig by value satisfy it through promoted methods and
// override ApplyDefaults and Validate to cover their own sections:
//
//	type CLIConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Detector DetectorConfig `yaml:"detector" mapstructure:"detector"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
