package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
// Zero values for Frames and Workers defer to the scenario's `simulation`
// block.
type Config struct {
	ScenarioPath string // .hcl file or directory tree

	Frames  uint64
	Workers int

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ScenarioPath == "" {
		return nil, errors.New("ScenarioPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
