package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for configuration fields.
const (
	DefaultWorkDirName = "clash-load-balance-launcher"

	DefaultClashBinary   = "clash"
	DefaultHAProxyBinary = "haproxy"

	DefaultBalancerListen    = "127.0.0.1:7890"
	DefaultBalancerAlgorithm = "roundrobin"
	DefaultCheckInterval     = 2 * time.Second
	DefaultConnectTimeout    = 5 * time.Second
	DefaultClientTimeout     = 60 * time.Second
	DefaultServerTimeout     = 60 * time.Second

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultRedactSecrets = true

	DefaultMetricsEnabled   = true
	DefaultMetricsFile      = "metrics.prom"
	DefaultMetricsNamespace = "clashlb"

	DefaultHistoryEnabled = true
	DefaultHistoryPath    = "history.db"
	DefaultHistoryKeep    = 100

	DefaultWatchDebounce = 500 * time.Millisecond
)

// DefaultWorkDir returns <os.TempDir()>/clash-load-balance-launcher.
func DefaultWorkDir() string {
	return filepath.Join(os.TempDir(), DefaultWorkDirName)
}

// Defaults returns a configuration with every field at its default. Boolean
// switches can only be turned off by decoding a file on top of it.
func Defaults() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactSecrets: DefaultRedactSecrets},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
		History: HistoryConfig{
			Enabled: DefaultHistoryEnabled,
			Keep:    DefaultHistoryKeep,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills empty fields with their defaults. Booleans are left
// as they are.
func ApplyDefaults(cfg *Config) {
	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir()
	}

	if cfg.Binaries.Clash == "" {
		cfg.Binaries.Clash = DefaultClashBinary
	}
	if cfg.Binaries.HAProxy == "" {
		cfg.Binaries.HAProxy = DefaultHAProxyBinary
	}

	applyBalancerDefaults(&cfg.Balancer)

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.File == "" {
		cfg.Telemetry.Metrics.File = DefaultMetricsFile
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}

func applyBalancerDefaults(b *BalancerConfig) {
	if b.Listen == "" {
		b.Listen = DefaultBalancerListen
	}
	if b.Algorithm == "" {
		b.Algorithm = DefaultBalancerAlgorithm
	}
	if b.CheckInterval == 0 {
		b.CheckInterval = DefaultCheckInterval
	}
	if b.Timeouts.Connect == 0 {
		b.Timeouts.Connect = DefaultConnectTimeout
	}
	if b.Timeouts.Client == 0 {
		b.Timeouts.Client = DefaultClientTimeout
	}
	if b.Timeouts.Server == 0 {
		b.Timeouts.Server = DefaultServerTimeout
	}
}
