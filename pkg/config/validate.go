package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"clashlb/launcher/pkg/balancer"
)

// FieldError is a validation error for one settings field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "balancer.listen").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError holds every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "settings validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("settings validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("settings validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.WorkDir == "" {
		errs = append(errs, FieldError{Field: "work_dir", Message: "field is required"})
	}

	errs = append(errs, validateBinaries(&cfg.Binaries)...)
	errs = append(errs, validateBalancer(&cfg.Balancer)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateHistory(&cfg.History)...)

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{Field: "watch.debounce", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateBinaries(b *BinariesConfig) []FieldError {
	var errs []FieldError
	if b.Clash == "" {
		errs = append(errs, FieldError{Field: "binaries.clash", Message: "field is required"})
	}
	if b.HAProxy == "" {
		errs = append(errs, FieldError{Field: "binaries.haproxy", Message: "field is required"})
	}
	return errs
}

func validateBalancer(b *BalancerConfig) []FieldError {
	var errs []FieldError

	if err := validateListenAddress(b.Listen); err != nil {
		errs = append(errs, FieldError{Field: "balancer.listen", Message: err.Error()})
	}

	if !balancer.ValidAlgorithm(b.Algorithm) {
		errs = append(errs, FieldError{
			Field:   "balancer.algorithm",
			Message: fmt.Sprintf("must be one of %s", strings.Join(balancer.Algorithms, ", ")),
		})
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"balancer.check_interval", b.CheckInterval},
		{"balancer.timeouts.connect", b.Timeouts.Connect},
		{"balancer.timeouts.client", b.Timeouts.Client},
		{"balancer.timeouts.server", b.Timeouts.Server},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, FieldError{Field: d.field, Message: "must be positive"})
		}
	}
	return errs
}

func validateListenAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("field is required")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address format: %v", err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "must be one of debug, info, warn, error",
		})
	}

	switch strings.ToLower(t.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "must be one of json, text, console",
		})
	}

	if t.Metrics.Enabled && t.Metrics.File == "" {
		errs = append(errs, FieldError{Field: "telemetry.metrics.file", Message: "field is required when metrics are enabled"})
	}
	return errs
}

func validateHistory(h *HistoryConfig) []FieldError {
	var errs []FieldError
	if h.Enabled && h.Path == "" {
		errs = append(errs, FieldError{Field: "history.path", Message: "field is required when history is enabled"})
	}
	if h.Keep < 0 {
		errs = append(errs, FieldError{Field: "history.keep", Message: "must not be negative"})
	}
	return errs
}
