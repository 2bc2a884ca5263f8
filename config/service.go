package config

import (
	"fmt"

	"github.com/kbukum/spikekit/logger"
	"github.com/kbukum/spikekit/validation"
)

// Environments lists the accepted values of ServiceConfig.Environment.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig holds the fields every spikes command shares. Command
// configs embed it with mapstructure squash so its keys stay top-level.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig lets embedding structs satisfy bootstrap.Config.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

// ApplyDefaults fills the environment and logging section. Debug is
// forced on in development.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	c.Debug = c.Debug || c.Environment == "development"
	c.Logging.ApplyDefaults()
}

// Validate checks the base fields and the logging section.
// Embedding structs that override it call c.ServiceConfig.Validate() first.
func (c *ServiceConfig) Validate() error {
	err := validation.New().
		Check(c.Name != "", "config.name", "is required").
		OneOf("config.environment", c.Environment, Environments...).
		Err()
	if err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
