package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phishlens/phishlens/internal/predict"
)

// Config represents the application configuration
type Config struct {
	Backend       BackendConfig  `yaml:"backend"`
	Server        ServerConfig   `yaml:"server"`
	Database      DatabaseConfig `yaml:"database"`
	Charts        ChartConfig    `yaml:"charts"`
	LogLevel      string         `yaml:"log_level"`
	SearchEngines []string       `yaml:"search_engines"`
}

// BackendConfig locates the prediction service.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures `phishlens serve`.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig enables assessment history. An empty URL disables it.
type DatabaseConfig struct {
	URL           string        `yaml:"url"`
	Retention     time.Duration `yaml:"retention"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// ChartConfig sets the size of rendered charts in pixels.
type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:  BackendConfig{URL: predict.DefaultEndpoint, Timeout: predict.DefaultTimeout},
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Retention: 30 * 24 * time.Hour, PruneInterval: 24 * time.Hour},
		Charts:   ChartConfig{Width: 800, Height: 400},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v, ok := lookup("PHISHLENS_BACKEND_URL"); ok && v != "" {
		config.Backend.URL = v
	}
	if v, ok := lookup("PHISHLENS_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PHISHLENS_TIMEOUT: %w", err)
		}
		config.Backend.Timeout = d
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		config.Server.Port = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		config.LogLevel = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		config.Database.URL = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive, got %s", c.Backend.Timeout)
	}
	if c.Database.URL != "" && (c.Database.Retention <= 0 || c.Database.PruneInterval <= 0) {
		return fmt.Errorf("database retention and prune_interval must be positive")
	}
	return nil
}
