// Package config loads service configuration from YAML files, .env files,
// environment variables and command-line flags.
//
// Values are layered, lowest precedence first: flag defaults, registered
// defaults, config file, environment, flags the user set. Every key of the
// target struct reads from its upper-cased environment name, so
// DETECTOR_MIN_PEAK_HEIGHT sets detector.min_peak_height.
//
//	var cfg CLIConfig
//	err := config.LoadConfig("spikes", &cfg,
//	    config.WithConfigFile(path),
//	    config.WithFlags(flags, map[string]string{"min-peak-height": "detector.min_peak_height"}),
//	)
package config
