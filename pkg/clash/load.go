package clash

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigMissing is returned when no configuration path was given or
	// the file does not exist.
	ErrConfigMissing = errors.New("clash configuration is required")

	// ErrInvalidConfig is matched by every parse and validation failure.
	ErrInvalidConfig = errors.New("invalid clash configuration")
)

// legacySections mirrors the pre-1.0 section names.
type legacySections struct {
	Proxy      []Proxy      `yaml:"Proxy"`
	ProxyGroup []ProxyGroup `yaml:"Proxy Group"`
	Rule       []string     `yaml:"Rule"`
}

// Load reads and parses the Clash configuration at path.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrConfigMissing
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrConfigMissing, path)
		}
		return nil, fmt.Errorf("failed to read clash configuration %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a Clash configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var legacy legacySections
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var errs []FieldError
	errs = append(errs, adoptLegacy(&cfg, &legacy)...)
	errs = append(errs, validate(&cfg)...)
	if len(errs) > 0 {
		return nil, ValidationError{Errors: errs}
	}
	return &cfg, nil
}

// adoptLegacy moves legacy sections onto the modern fields and strips the
// legacy keys from Extra.
func adoptLegacy(cfg *Config, legacy *legacySections) []FieldError {
	var errs []FieldError
	if _, ok := cfg.Extra[legacyProxyKey]; ok {
		if cfg.Proxies != nil {
			errs = append(errs, FieldError{Field: legacyProxyKey, Message: "conflicts with proxies"})
		} else {
			cfg.Proxies = legacy.Proxy
		}
	}
	if _, ok := cfg.Extra[legacyProxyGroupKey]; ok {
		if cfg.ProxyGroups != nil {
			errs = append(errs, FieldError{Field: legacyProxyGroupKey, Message: "conflicts with proxy-groups"})
		} else {
			cfg.ProxyGroups = legacy.ProxyGroup
		}
	}
	if _, ok := cfg.Extra[legacyRuleKey]; ok {
		if cfg.Rules != nil {
			errs = append(errs, FieldError{Field: legacyRuleKey, Message: "conflicts with rules"})
		} else {
			cfg.Rules = legacy.Rule
		}
	}
	delete(cfg.Extra, legacyProxyKey)
	delete(cfg.Extra, legacyProxyGroupKey)
	delete(cfg.Extra, legacyRuleKey)
	if len(cfg.Extra) == 0 {
		cfg.Extra = nil
	}
	return errs
}

// Marshal serializes cfg as YAML using the modern section names.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal clash configuration: %w", err)
	}
	return data, nil
}
