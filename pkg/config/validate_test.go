package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Errorf("Validate(Defaults()) error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"empty work dir", func(c *Config) { c.WorkDir = "" }, "work_dir"},
		{"empty clash binary", func(c *Config) { c.Binaries.Clash = "" }, "binaries.clash"},
		{"empty haproxy binary", func(c *Config) { c.Binaries.HAProxy = "" }, "binaries.haproxy"},
		{"listen without port", func(c *Config) { c.Balancer.Listen = "127.0.0.1" }, "balancer.listen"},
		{"listen port zero", func(c *Config) { c.Balancer.Listen = "127.0.0.1:0" }, "balancer.listen"},
		{"listen port too large", func(c *Config) { c.Balancer.Listen = ":70000" }, "balancer.listen"},
		{"unknown algorithm", func(c *Config) { c.Balancer.Algorithm = "random" }, "balancer.algorithm"},
		{"zero check interval", func(c *Config) { c.Balancer.CheckInterval = 0 }, "balancer.check_interval"},
		{"negative server timeout", func(c *Config) { c.Balancer.Timeouts.Server = -1 }, "balancer.timeouts.server"},
		{"unknown log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"unknown log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"metrics without file", func(c *Config) { c.Telemetry.Metrics.File = "" }, "telemetry.metrics.file"},
		{"history without path", func(c *Config) { c.History.Path = "" }, "history.path"},
		{"negative keep", func(c *Config) { c.History.Keep = -1 }, "history.keep"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -1 }, "watch.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if len(verr.Errors) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(verr.Errors), verr)
			}
			if verr.Errors[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Errors[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidate_DisabledSectionsSkipPaths(t *testing.T) {
	cfg := Defaults()
	cfg.Telemetry.Metrics.Enabled = false
	cfg.Telemetry.Metrics.File = ""
	cfg.History.Enabled = false
	cfg.History.Path = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "settings validation failed: a: bad" {
		t.Errorf("Error() = %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	got := multi.Error()
	if !strings.Contains(got, "with 2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("Error() = %q", got)
	}
}
