package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Tickers []string      `toml:"tickers"` // Default ticker list for CLI runs
	Fetch   FetchConfig   `toml:"fetch"`
	Logging LoggingConfig `toml:"logging"`
}

// FetchConfig controls how requests against the provider are issued
type FetchConfig struct {
	Country    string        `toml:"country" validate:"required"`        // Country code used for lang/region query parameters
	Concurrent bool          `toml:"concurrent"`                         // Fan out over tickers with a worker pool
	MaxWorkers int           `toml:"max_workers" validate:"gt=0"`        // Worker pool size cap (concurrent mode only)
	Timeout    time.Duration `toml:"timeout" validate:"gt=0"`            // Per-request HTTP timeout
	Proxies    []string      `toml:"proxies"`                            // Optional proxy URLs, one picked at random per request
	FlatFormat bool          `toml:"flat_format"`                        // Return fundamentals as one flattened date->fields map
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			Country:    "US",
			Concurrent: false,
			MaxWorkers: 8,
			Timeout:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if country := os.Getenv("FINFETCH_COUNTRY"); country != "" {
		config.Fetch.Country = country
	}
	if workers := os.Getenv("FINFETCH_MAX_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Fetch.MaxWorkers = w
		}
	}
	if timeout := os.Getenv("FINFETCH_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Fetch.Timeout = d
		}
	}
	if level := os.Getenv("FINFETCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
