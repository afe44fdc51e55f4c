// Package config provides unified configuration loading for synaptic.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config contains all synaptic configuration settings.
type Config struct {
	// World contains simulation settings.
	World WorldConfig `json:"world" yaml:"world"`

	// Store contains run persistence settings.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// WorldConfig configures the simulation loop.
type WorldConfig struct {
	// PopulationSize is the number of agents per generation.
	PopulationSize int `json:"population_size" yaml:"population_size"`

	// TicksPerGeneration is how many ticks run before arenas rotate.
	TicksPerGeneration int `json:"ticks_per_generation" yaml:"ticks_per_generation"`

	// Generations is the number of repopulation cycles to run.
	Generations int `json:"generations" yaml:"generations"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	// Enabled turns run recording on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database path. Empty means in-memory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures synaptic's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "trace" additionally emits per-tick events to a JSONL trace file.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			PopulationSize:     16,
			TicksPerGeneration: 100,
			Generations:        1,
		},
		Store: StoreConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a file if path is non-empty, then applies
// environment variable overrides. Order: defaults -> file -> environment.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.World.PopulationSize < 1 {
		return fmt.Errorf("population_size must be at least 1, got %d", c.World.PopulationSize)
	}

	if c.World.TicksPerGeneration < 1 {
		return fmt.Errorf("ticks_per_generation must be at least 1, got %d", c.World.TicksPerGeneration)
	}

	if c.World.Generations < 1 {
		return fmt.Errorf("generations must be at least 1, got %d", c.World.Generations)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SYNAPTIC_POPULATION_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.World.PopulationSize = n
		}
	}

	if v := os.Getenv("SYNAPTIC_STORE_ENABLED"); v != "" {
		config.Store.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("SYNAPTIC_STORE_PATH"); v != "" {
		config.Store.Path = v
	}

	if v := os.Getenv("SYNAPTIC_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
