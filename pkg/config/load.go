package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads settings from the YAML file at path on top of the
// defaults and validates them. An empty path yields the defaults.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads settings like LoadConfig and then applies
// CLASHLB_* environment overrides, which always take precedence over the
// file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("settings validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. Values that do
// not parse are ignored.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CLASHLB_WORK_DIR"); val != "" {
		cfg.WorkDir = val
	}

	if val := os.Getenv("CLASHLB_BINARIES_CLASH"); val != "" {
		cfg.Binaries.Clash = val
	}
	if val := os.Getenv("CLASHLB_BINARIES_HAPROXY"); val != "" {
		cfg.Binaries.HAProxy = val
	}

	if val := os.Getenv("CLASHLB_BALANCER_LISTEN"); val != "" {
		cfg.Balancer.Listen = val
	}
	if val := os.Getenv("CLASHLB_BALANCER_ALGORITHM"); val != "" {
		cfg.Balancer.Algorithm = val
	}

	if val := os.Getenv("CLASHLB_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CLASHLB_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}

	if val := os.Getenv("CLASHLB_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}

	if val := os.Getenv("CLASHLB_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = b
		}
	}
	if val := os.Getenv("CLASHLB_HISTORY_PATH"); val != "" {
		cfg.History.Path = val
	}
}
