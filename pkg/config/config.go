// Package config loads tagbridge settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cuemby/tagbridge/pkg/log"
	"github.com/cuemby/tagbridge/pkg/workerpool"
	"gopkg.in/yaml.v3"
)

// Defaults applied to zero fields
const (
	DefaultLogLevel        = "info"
	DefaultMetricsAddr     = ":9090"
	DefaultCollectInterval = 15 * time.Second
)

// Config holds the bridge and server settings
type Config struct {
	Workers         int           `yaml:"workers"`
	LogLevel        string        `yaml:"logLevel"`
	LogJSON         bool          `yaml:"logJSON"`
	MetricsAddr     string        `yaml:"metricsAddr"`
	CollectInterval time.Duration `yaml:"collectInterval"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Workers:         workerpool.DefaultSize,
		LogLevel:        DefaultLogLevel,
		MetricsAddr:     DefaultMetricsAddr,
		CollectInterval: DefaultCollectInterval,
	}
}

// Load reads a YAML file, fills unset fields with defaults and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes the same way Load does.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = d.MetricsAddr
	}
	if c.CollectInterval == 0 {
		c.CollectInterval = d.CollectInterval
	}
}

// Validate checks field ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	switch log.Level(c.LogLevel) {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.CollectInterval < 0 {
		errs = append(errs, fmt.Errorf("collectInterval must not be negative, got %s", c.CollectInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LogConfig converts the logging fields to a log.Config
func (c *Config) LogConfig() log.Config {
	return log.Config{
		Level:      log.ParseLevel(c.LogLevel),
		JSONOutput: c.LogJSON,
	}
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
