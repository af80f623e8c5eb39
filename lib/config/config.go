// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the trace service configuration.
type Config struct {
	// Environment identifies the deployment type (development,
	// staging, production).
	Environment Environment `yaml:"environment"`

	// Listen configures the HTTP listeners.
	Listen ListenConfig `yaml:"listen"`

	// Store configures run persistence.
	Store StoreConfig `yaml:"store"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log"`

	// Limits bounds scenario execution.
	Limits LimitsConfig `yaml:"limits"`

	// EnvironmentOverrides contains per-environment overrides,
	// applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment.
type ConfigOverrides struct {
	Listen *ListenConfig `yaml:"listen,omitempty"`
	Store  *StoreConfig  `yaml:"store,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
	Limits *LimitsConfig `yaml:"limits,omitempty"`
}

// ListenConfig configures the HTTP listeners.
type ListenConfig struct {
	// API is the address of the run API and websocket feed.
	// Default: 127.0.0.1:8460
	API string `yaml:"api"`

	// Metrics is the address of the Prometheus /metrics endpoint.
	// Default: 127.0.0.1:8461
	Metrics string `yaml:"metrics"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	// Path is the SQLite database file for run history.
	// Default: ${CHRONON_ROOT}/runs.db
	Path string `yaml:"path"`

	// PoolSize is the SQLite connection pool size. Default: 4.
	PoolSize int `yaml:"pool_size"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	// Default: info.
	Level string `yaml:"level"`
}

// LimitsConfig bounds scenario execution submitted over the API.
type LimitsConfig struct {
	// MaxTimers caps the timer count of a submitted scenario.
	// Default: 1024.
	MaxTimers int `yaml:"max_timers"`

	// MaxAdvances caps a submitted scenario's advance budget,
	// regardless of what the scenario declares. Default: 65536.
	MaxAdvances int `yaml:"max_advances"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file. They exist primarily to
// ensure all fields have sensible zero-values, not as a fallback —
// the config file is required.
func Default() *Config {
	homeDirectory, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDirectory, ".cache", "chronon")

	return &Config{
		Environment: Development,
		Listen: ListenConfig{
			API:     "127.0.0.1:8460",
			Metrics: "127.0.0.1:8461",
		},
		Store: StoreConfig{
			Path:     filepath.Join(defaultRoot, "runs.db"),
			PoolSize: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
		Limits: LimitsConfig{
			MaxTimers:   1024,
			MaxAdvances: 65536,
		},
	}
}

// Load loads configuration from the CHRONON_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks — if CHRONON_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("CHRONON_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("CHRONON_CONFIG environment variable not set; " +
			"set it to the path of your chronon.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values. The only expansion
// performed is ${VAR} and ${VAR:-default} in paths for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the environment-specific override
// section matching the configured environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Listen != nil {
		if overrides.Listen.API != "" {
			c.Listen.API = overrides.Listen.API
		}
		if overrides.Listen.Metrics != "" {
			c.Listen.Metrics = overrides.Listen.Metrics
		}
	}

	if overrides.Store != nil {
		if overrides.Store.Path != "" {
			c.Store.Path = overrides.Store.Path
		}
		if overrides.Store.PoolSize != 0 {
			c.Store.PoolSize = overrides.Store.PoolSize
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
	}

	if overrides.Limits != nil {
		if overrides.Limits.MaxTimers != 0 {
			c.Limits.MaxTimers = overrides.Limits.MaxTimers
		}
		if overrides.Limits.MaxAdvances != 0 {
			c.Limits.MaxAdvances = overrides.Limits.MaxAdvances
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Store.Path = expandVars(c.Store.Path, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Listen.API == "" {
		errs = append(errs, fmt.Errorf("listen.api is required"))
	}
	if c.Listen.Metrics == "" {
		errs = append(errs, fmt.Errorf("listen.metrics is required"))
	}
	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}
	if c.Store.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("store.pool_size must not be negative"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Limits.MaxTimers <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_timers must be positive"))
	}
	if c.Limits.MaxAdvances <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_advances must be positive"))
	}

	return errors.Join(errs...)
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
}

// EnsureStoreDirectory creates the directory holding the run database
// if it does not exist.
func (c *Config) EnsureStoreDirectory() error {
	directory := filepath.Dir(c.Store.Path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}
	return nil
}
