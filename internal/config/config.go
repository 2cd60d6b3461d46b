// Package config loads graphstore settings from YAML with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/graphstore/internal/logging"
)

// Environment variables that override file settings.
const (
	EnvJournal        = "GRAPHSTORE_DB"
	EnvLogLevel       = "GRAPHSTORE_LOG_LEVEL"
	EnvLogFormat      = "GRAPHSTORE_LOG_FORMAT"
	EnvLaunchSettings = "GRAPHSTORE_LAUNCH_SETTINGS"
)

// Config is the full configuration.
type Config struct {
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
	Launch  LaunchConfig  `yaml:"launch"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// JournalConfig locates the SQLite event journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// LaunchConfig locates the welcome banner settings file.
type LaunchConfig struct {
	SettingsPath string `yaml:"settings_path"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Journal: JournalConfig{Path: "graphstore.db"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Launch:  LaunchConfig{SettingsPath: "launch.yaml"},
		Metrics: MetricsConfig{Namespace: "graphstore"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// decode is strict: unknown keys are errors. An empty document keeps the
// defaults.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides settings from non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvJournal); v != "" {
		c.Journal.Path = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := getenv(EnvLaunchSettings); v != "" {
		c.Launch.SettingsPath = v
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Logging.Format)
	}
	if c.Journal.Path == "" {
		return fmt.Errorf("journal path is required (set %s or journal.path)", EnvJournal)
	}
	if c.Launch.SettingsPath == "" {
		return fmt.Errorf("launch settings path is required (set %s or launch.settings_path)", EnvLaunchSettings)
	}
	if c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics namespace is required")
	}
	return nil
}
