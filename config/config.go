package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RuntimeConfig represents the execution runtime endpoint configuration
type RuntimeConfig struct {
	URL     string `yaml:"url"`
	ChainID int64  `yaml:"chain_id"`
}

// DatabaseConfig represents the trusted chain database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// NotifierConfig represents the notification tick configuration
type NotifierConfig struct {
	IntervalMS int `yaml:"interval_ms"`
}

// MetricsConfig represents the metrics endpoint configuration
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LoggerConfig represents logger configuration
type LoggerConfig struct {
	Development bool `yaml:"development"`
}

// Config represents the main configuration structure
type Config struct {
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Database DatabaseConfig `yaml:"database"`
	Notifier NotifierConfig `yaml:"notifier"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logger   LoggerConfig   `yaml:"logger"`
}

// LoadConfig loads configuration from a YAML file and environment variables
func LoadConfig(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Runtime.URL == "" {
		return fmt.Errorf("runtime url must be set")
	}
	if cfg.Runtime.ChainID <= 0 {
		return fmt.Errorf("chain_id must be > 0")
	}
	if cfg.Notifier.IntervalMS < 0 {
		return fmt.Errorf("interval_ms must be >= 0")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to configuration
func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("GATEWAY_RUNTIME_URL"); url != "" {
		cfg.Runtime.URL = url
	}

	if chainID := os.Getenv("GATEWAY_CHAIN_ID"); chainID != "" {
		if parsed, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			cfg.Runtime.ChainID = parsed
		}
	}

	if path := os.Getenv("GATEWAY_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}

	if interval := os.Getenv("GATEWAY_NOTIFIER_INTERVAL_MS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil {
			cfg.Notifier.IntervalMS = parsed
		}
	}

	if addr := os.Getenv("GATEWAY_METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
	}

	if development := os.Getenv("GATEWAY_LOGGER_DEVELOPMENT"); development != "" {
		if parsed, err := strconv.ParseBool(development); err == nil {
			cfg.Logger.Development = parsed
		}
	}
}
