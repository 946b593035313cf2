package config

import "sync/atomic"

// current is the settings of this process, set once by the command layer
// after flags and environment have been applied.
var current atomic.Pointer[Config]

// GetConfig returns the process settings, or nil before SetConfig.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig installs cfg as the process settings.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// MustGetConfig returns the process settings and panics if none were set.
func MustGetConfig() *Config {
	cfg := current.Load()
	if cfg == nil {
		panic("settings not loaded: call SetConfig first")
	}
	return cfg
}
