// Package config loads gmgen settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/generator"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "gmgen.yaml"

// Config holds all gmgen configuration.
type Config struct {
	// Generator options; unset fields keep the engine defaults.
	Options generator.OptionsPatch `yaml:"options"`

	// Bundle files or directories loaded at startup.
	Libraries []string `yaml:"libraries"`

	Store StoreConfig `yaml:"store"`

	// Seed for the random source. 0 picks a random seed.
	Seed int64 `yaml:"seed"`

	// Workers is the generation fan-out for batch runs.
	Workers int `yaml:"workers"`
}

// StoreConfig configures bundle persistence.
type StoreConfig struct {
	// DSN of the SQLite database. Empty disables the store.
	DSN string `yaml:"dsn"`
}

// envOverrides lists the variables that win over the file.
type envOverrides struct {
	MaxIterations    *int        `env:"GMGEN_MAX_ITERATIONS"`
	Logging          *diag.Level `env:"GMGEN_LOGGING"`
	PreventEarlyExit *bool       `env:"GMGEN_PREVENT_EARLY_EXIT"`
	Seed             *int64      `env:"GMGEN_SEED"`
	StoreDSN         *string     `env:"GMGEN_STORE_DSN"`
	Workers          *int        `env:"GMGEN_WORKERS"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{Workers: 1}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.MaxIterations != nil {
		c.Options.MaxIterations = o.MaxIterations
	}
	if o.Logging != nil {
		c.Options.Logging = o.Logging
	}
	if o.PreventEarlyExit != nil {
		c.Options.PreventEarlyExit = o.PreventEarlyExit
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.StoreDSN != nil {
		c.Store.DSN = *o.StoreDSN
	}
	if o.Workers != nil {
		c.Workers = *o.Workers
	}
	return nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", errs.ErrMalformedInput, c.Workers)
	}
	if c.Options.MaxIterations != nil && *c.Options.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", errs.ErrMalformedInput, *c.Options.MaxIterations)
	}
	return nil
}

// GeneratorOptions resolves the configured patch against the engine defaults.
func (c *Config) GeneratorOptions() generator.Options {
	return generator.DefaultOptions().Apply(c.Options)
}
