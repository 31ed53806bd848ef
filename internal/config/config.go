// Package config loads the service configuration from a YAML file with
// environment-variable overrides. A missing file yields the defaults,
// not an error, so the binary runs with zero setup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ClientConfig tunes the backend HTTP client
type ClientConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxRetries     int `yaml:"max_retries"`
	BackoffMs      int `yaml:"backoff_ms"`
	BackoffMaxMs   int `yaml:"backoff_max_ms"`
}

// Config holds the full service configuration
type Config struct {
	Listen         string       `yaml:"listen"`
	BackendURL     string       `yaml:"backend_url"`
	PollIntervalMs int          `yaml:"poll_interval_ms"`
	PageSize       int          `yaml:"page_size"`
	Dedup          bool         `yaml:"dedup"`
	Client         ClientConfig `yaml:"client"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Listen:         ":8080",
		BackendURL:     "http://localhost:9000",
		PollIntervalMs: 1000,
		PageSize:       10,
		Dedup:          false,
		Client: ClientConfig{
			TimeoutSeconds: 10,
			MaxRetries:     3,
			BackoffMs:      200,
			BackoffMaxMs:   5000,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies VALFRONT_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VALFRONT_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("VALFRONT_BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := envInt("VALFRONT_POLL_INTERVAL_MS"); v > 0 {
		c.PollIntervalMs = v
	}
	if v := envInt("VALFRONT_PAGE_SIZE"); v > 0 {
		c.PageSize = v
	}
	if v := os.Getenv("VALFRONT_DEDUP"); v != "" {
		c.Dedup = v == "1" || v == "true"
	}
	if v := envInt("VALFRONT_CLIENT_TIMEOUT_SECONDS"); v > 0 {
		c.Client.TimeoutSeconds = v
	}
	if v := envInt("VALFRONT_CLIENT_MAX_RETRIES"); v >= 0 && os.Getenv("VALFRONT_CLIENT_MAX_RETRIES") != "" {
		c.Client.MaxRetries = v
	}
	if v := envInt("VALFRONT_CLIENT_BACKOFF_MS"); v > 0 {
		c.Client.BackoffMs = v
	}
	if v := envInt("VALFRONT_CLIENT_BACKOFF_MAX_MS"); v > 0 {
		c.Client.BackoffMaxMs = v
	}
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return errors.New("backend_url must not be empty")
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive, got %d", c.PollIntervalMs)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Client.TimeoutSeconds <= 0 {
		return fmt.Errorf("client timeout_seconds must be positive, got %d", c.Client.TimeoutSeconds)
	}
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("client max_retries must not be negative, got %d", c.Client.MaxRetries)
	}
	return nil
}
