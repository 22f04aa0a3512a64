// Package config provides unified configuration for the ollagate gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment file (.env); the process environment wins over it
//  4. Environment variable overrides
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import (
	"time"

	"github.com/rhuss/ollagate/pkg/tokens"
)

// Config holds all configuration for the ollagate gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Upstream      UpstreamConfig      `yaml:"upstream"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`          // default: "0.0.0.0"
	Port         int           `yaml:"port"`          // default: 8000
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 130s, never below upstream.timeout
	MaxBodySize  int64         `yaml:"max_body_size"` // default: 10 MB
	CORSOrigins  []string      `yaml:"cors_origins"`  // empty allows all origins
}

// UpstreamConfig holds settings for the Ollama inference server.
type UpstreamConfig struct {
	BaseURL      string        `yaml:"base_url"`      // default: "http://localhost:11434"
	Timeout      time.Duration `yaml:"timeout"`       // default: 120s
	DefaultModel string        `yaml:"default_model"` // used when a request omits model
}

// AuthConfig holds bearer-token settings.
type AuthConfig struct {
	Tokens     []string `yaml:"tokens"`      // accepted bearer tokens
	TokensFile string   `yaml:"tokens_file"` // _file variant for tokens (comma or newline separated)
	EnvFile    string   `yaml:"env_file"`    // default: ".env"
}

// LoggingConfig holds slog and log file settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`        // TRACE, DEBUG, INFO, WARN, ERROR; default: INFO
	Format     string `yaml:"format"`       // "text" or "json"; default: "text"
	Debug      string `yaml:"debug"`        // comma-separated debug categories
	File       string `yaml:"file"`         // optional rotated log file
	MaxSizeMB  int    `yaml:"max_size_mb"`  // default: 10
	MaxBackups int    `yaml:"max_backups"`  // default: 5
	MaxAgeDays int    `yaml:"max_age_days"` // 0 keeps files regardless of age
	Compress   bool   `yaml:"compress"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 130 * time.Second,
			MaxBodySize:  10 << 20,
		},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:11434",
			Timeout: 120 * time.Second,
		},
		Auth: AuthConfig{
			EnvFile: ".env",
		},
		Logging: LoggingConfig{
			Level:      "INFO",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// TokenSet returns the configured bearer tokens as an immutable set.
func (c *Config) TokenSet() tokens.Set {
	return tokens.New(c.Auth.Tokens...)
}
