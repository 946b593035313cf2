package config

import (
	"path/filepath"
	"time"
)

// Config is the root settings structure for clash-lb.
type Config struct {
	// WorkDir is the root under which instance directories, the
	// load-balancer configuration and the pid file are written.
	// Default: <os.TempDir()>/clash-load-balance-launcher
	WorkDir string `yaml:"work_dir"`

	// Binaries names the executables that are spawned.
	Binaries BinariesConfig `yaml:"binaries"`

	// Balancer configures the generated HAProxy front end.
	Balancer BalancerConfig `yaml:"balancer"`

	// Telemetry configures logging and the metrics textfile.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// History configures the launch journal.
	History HistoryConfig `yaml:"history"`

	// Watch configures launch --watch.
	Watch WatchConfig `yaml:"watch"`
}

// BinariesConfig names the spawned executables. Bare names are looked up
// on PATH.
type BinariesConfig struct {
	// Clash is the proxy engine. Default: "clash"
	Clash string `yaml:"clash"`

	// HAProxy is the load balancer. Default: "haproxy"
	HAProxy string `yaml:"haproxy"`
}

// BalancerConfig configures the load balancer.
type BalancerConfig struct {
	// Listen is the front-end bind address. Default: "127.0.0.1:7890"
	Listen string `yaml:"listen"`

	// Algorithm is the HAProxy balance algorithm, one of roundrobin,
	// first, leastconn, source. Default: "roundrobin"
	Algorithm string `yaml:"algorithm"`

	// CheckInterval is the backend health check interval. Default: 2s
	CheckInterval time.Duration `yaml:"check_interval"`

	// Timeouts are the HAProxy connect/client/server timeouts.
	Timeouts TimeoutsConfig `yaml:"timeouts"`
}

// TimeoutsConfig holds HAProxy timeouts.
type TimeoutsConfig struct {
	Connect time.Duration `yaml:"connect"`
	Client  time.Duration `yaml:"client"`
	Server  time.Duration `yaml:"server"`
}

// TelemetryConfig groups observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: "info"
	Level string `yaml:"level"`

	// Format is one of json, text, console. Default: "console"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks proxy credentials in log output. Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig configures the prometheus textfile.
type MetricsConfig struct {
	// Enabled writes metrics after each launch. Default: true
	Enabled bool `yaml:"enabled"`

	// File is the textfile path, relative to WorkDir unless absolute.
	// Default: "metrics.prom"
	File string `yaml:"file"`

	// Namespace prefixes every metric name. Default: "clashlb"
	Namespace string `yaml:"namespace"`
}

// HistoryConfig configures the launch journal.
type HistoryConfig struct {
	// Enabled records every launch. Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the database file, relative to WorkDir unless absolute.
	// Default: "history.db"
	Path string `yaml:"path"`

	// Keep is how many launches are retained; 0 keeps all. Default: 100
	Keep int `yaml:"keep"`
}

// WatchConfig configures config file watching.
type WatchConfig struct {
	// Debounce is the quiet period before a change triggers a relaunch.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`
}

// MetricsPath returns the metrics textfile path resolved against WorkDir.
func (c *Config) MetricsPath() string {
	return c.resolve(c.Telemetry.Metrics.File)
}

// HistoryPath returns the journal path resolved against WorkDir.
func (c *Config) HistoryPath() string {
	return c.resolve(c.History.Path)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}
