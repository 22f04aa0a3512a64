package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/ollagate/pkg/tokens"
)

// writeTimeoutMargin keeps the server write deadline beyond the upstream
// timeout so a slow upstream surfaces as 504 instead of a dropped connection.
const writeTimeoutMargin = 10 * time.Second

// Option adjusts how Load discovers its sources.
type Option func(*loadOptions)

type loadOptions struct {
	envFile string
}

// WithEnvFile sets the environment file to read. It takes precedence over
// OLLAGATE_ENV_FILE and auth.env_file.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) {
		o.envFile = path
	}
}

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, OLLAGATE_CONFIG env, ./ollagate.yaml, /etc/ollagate/config.yaml)
//  3. Environment file (API_TOKENS, OLLAMA_API_BASE, OLLAGATE_*), overridden by the process environment
//  4. Environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string, opts ...Option) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	envPath := discoverEnvFile(o.envFile, cfg.Auth.EnvFile)
	fileEnv, err := tokens.ReadEnvFile(envPath)
	if err != nil {
		return nil, err
	}
	cfg.Auth.EnvFile = envPath

	if err := applyEnvOverrides(&cfg, newLookup(fileEnv)); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if cfg.Server.WriteTimeout > 0 && cfg.Server.WriteTimeout < cfg.Upstream.Timeout+writeTimeoutMargin {
		cfg.Server.WriteTimeout = cfg.Upstream.Timeout + writeTimeoutMargin
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. OLLAGATE_CONFIG environment variable
// 3. ./ollagate.yaml in the current directory
// 4. /etc/ollagate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("OLLAGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"ollagate.yaml",
		"/etc/ollagate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// discoverEnvFile picks the environment file: explicit option, then
// OLLAGATE_ENV_FILE, then the configured auth.env_file.
func discoverEnvFile(explicit, configured string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("OLLAGATE_ENV_FILE"); v != "" {
		return v
	}
	return configured
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// lookupFunc returns the value for an environment key and whether it is set.
type lookupFunc func(key string) (string, bool)

// newLookup resolves keys from the process environment first and falls back
// to the values read from the environment file. The process environment is
// never modified.
func newLookup(fileEnv map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok && v != ""
	}
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	var errs []error

	if v, ok := lookup(tokens.UpstreamKey); ok {
		cfg.Upstream.BaseURL = v
	}
	if v, ok := lookup(tokens.TokensKey); ok {
		cfg.Auth.Tokens = tokens.Parse(v).Tokens()
	}
	if v, ok := lookup("OLLAGATE_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookup("OLLAGATE_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("OLLAGATE_PORT: %q is not a number", v))
		} else {
			cfg.Server.Port = port
		}
	}
	if v, ok := lookup("OLLAGATE_TIMEOUT"); ok {
		d, err := parseTimeout(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("OLLAGATE_TIMEOUT: %w", err))
		} else {
			cfg.Upstream.Timeout = d
		}
	}
	if v, ok := lookup("OLLAGATE_CORS_ORIGINS"); ok {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("OLLAGATE_DEFAULT_MODEL"); ok {
		cfg.Upstream.DefaultModel = v
	}
	if v, ok := lookup("OLLAGATE_LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("OLLAGATE_LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := lookup("OLLAGATE_LOG_FILE"); ok {
		cfg.Logging.File = v
	}
	if v, ok := lookup("OLLAGATE_DEBUG"); ok {
		cfg.Logging.Debug = v
	}

	return errors.Join(errs...)
}

// splitList parses a comma-separated list, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseTimeout accepts a Go duration ("90s", "2m") or a bare number of
// seconds ("120").
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a duration nor a number of seconds", v)
	}
	return d, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// The file is only read when the value field is empty.
func resolveFileReferences(cfg *Config) error {
	// auth.tokens_file -> auth.tokens
	if cfg.Auth.TokensFile != "" && len(cfg.Auth.Tokens) == 0 {
		val, err := readSecretFile(cfg.Auth.TokensFile)
		if err != nil {
			return fmt.Errorf("auth.tokens_file: %w", err)
		}
		cfg.Auth.Tokens = tokens.New(strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == '\n' || r == '\r'
		})...).Tokens()
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
