// Package config loads and validates the molvisd server configuration from
// YAML. Values may reference environment variables with ${VAR} syntax, which
// is expanded before parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete molvisd configuration
type Config struct {
	// Listen is the HTTP listen address for the WebSocket endpoint
	Listen string `yaml:"listen"`
	// WSPath is the endpoint path peers connect to
	WSPath string `yaml:"ws_path"`
	// MetricsPath is where Prometheus metrics are exposed; empty disables
	MetricsPath string `yaml:"metrics_path"`
	// Timeout is the default deadline for blocking calls (e.g. "5s")
	Timeout string `yaml:"timeout"`
	// BufferThreshold in bytes enables the binary side-channel for large
	// numeric columns; zero keeps everything inline
	BufferThreshold int `yaml:"buffer_threshold"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
	// DefaultScene is the scene created at startup; empty skips creation
	DefaultScene string `yaml:"default_scene"`
	// NATS configures the optional NATS transport
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig configures the optional NATS transport
type NATSConfig struct {
	// Enabled switches the NATS transport on
	Enabled bool `yaml:"enabled"`
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// SubjectPrefix namespaces the per-scene subjects; default "molvis"
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Listen:       ":8766",
		WSPath:       "/molvis",
		MetricsPath:  "/metrics",
		Timeout:      "5s",
		LogLevel:     "info",
		DefaultScene: "main",
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "molvis",
		},
	}
}

// Load reads, expands and validates a configuration file. Missing optional
// fields fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("ws_path must start with /, got %q", c.WSPath)
	}
	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("metrics_path must start with /, got %q", c.MetricsPath)
	}
	if c.MetricsPath != "" && c.MetricsPath == c.WSPath {
		return fmt.Errorf("metrics_path and ws_path cannot both be %q", c.WSPath)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.BufferThreshold < 0 {
		return fmt.Errorf("buffer_threshold cannot be negative, got %d", c.BufferThreshold)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url cannot be empty when nats is enabled")
	}
	return nil
}

// TimeoutDuration parses the configured call timeout
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %q", c.Timeout)
	}
	return d, nil
}
