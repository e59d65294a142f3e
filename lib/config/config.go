// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path from.
const EnvironmentVariable = "FIFORELAY_CONFIG"

// Config is the complete fiforelay configuration.
type Config struct {
	// Target identifies the remote endpoint and the local pipe location.
	Target TargetConfig `yaml:"target" toml:"target"`

	// Relay configures session behavior.
	Relay RelayConfig `yaml:"relay" toml:"relay"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
}

// TargetConfig is the file form of relay.Target.
type TargetConfig struct {
	Hostname string `yaml:"hostname" toml:"hostname"`
	Port     int    `yaml:"port" toml:"port"`

	// Identity names the local user; attached to log records.
	Identity string `yaml:"identity" toml:"identity"`

	// BaseDirectory holds one pipe directory per hostname.
	// Supports ${VAR} and ${VAR:-default} expansion.
	BaseDirectory string `yaml:"base_directory" toml:"base_directory"`
}

// RelayConfig configures session behavior.
type RelayConfig struct {
	// DialTimeout bounds DNS resolution plus TCP connect, as a Go
	// duration string. "0" disables the bound.
	// Default: 30s
	DialTimeout string `yaml:"dial_timeout" toml:"dial_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level" toml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the TCP address serving /metrics. Empty disables it.
	Listen string `yaml:"listen" toml:"listen"`
}

// Default returns the configuration used as a base before loading the
// config file and applying flags.
func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			DialTimeout: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the file named by FIFORELAY_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your fiforelay config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

// loadFile decodes a single configuration file into c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Target.BaseDirectory = expandVars(c.Target.BaseDirectory, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
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

// DialTimeout returns Relay.DialTimeout parsed as a duration.
func (c *Config) DialTimeout() (time.Duration, error) {
	if c.Relay.DialTimeout == "" || c.Relay.DialTimeout == "0" {
		return 0, nil
	}
	return time.ParseDuration(c.Relay.DialTimeout)
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Target.Hostname == "" {
		errs = append(errs, fmt.Errorf("target.hostname is required"))
	}
	if c.Target.Port < 1 || c.Target.Port > 65535 {
		errs = append(errs, fmt.Errorf("target.port must be between 1 and 65535, got %d", c.Target.Port))
	}
	if c.Target.Identity == "" {
		errs = append(errs, fmt.Errorf("target.identity is required"))
	}
	if c.Target.BaseDirectory == "" {
		errs = append(errs, fmt.Errorf("target.base_directory is required"))
	}

	if timeout, err := c.DialTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("relay.dial_timeout: %w", err))
	} else if timeout < 0 {
		errs = append(errs, fmt.Errorf("relay.dial_timeout must not be negative"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}
	formats := []string{"text", "json"}
	if !contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
