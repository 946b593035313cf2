package clash

import (
	"fmt"
	"strings"
)

// FieldError is a validation failure for one configuration field.
type FieldError struct {
	// Field is the path of the offending field (e.g. "proxies[2].name").
	Field string

	// Message is a human-readable description.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "clash configuration is invalid"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("clash configuration is invalid: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("clash configuration is invalid with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Is reports whether target is ErrInvalidConfig.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks the fields the launcher depends on.
func Validate(cfg *Config) error {
	if errs := validate(cfg); len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validate(cfg *Config) []FieldError {
	var errs []FieldError

	if len(cfg.Proxies) == 0 {
		errs = append(errs, FieldError{
			Field:   "proxies",
			Message: "at least one proxy is required",
		})
	}

	seen := make(map[string]int, len(cfg.Proxies))
	for i, p := range cfg.Proxies {
		field := fmt.Sprintf("proxies[%d].name", i)
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, FieldError{Field: field, Message: "name is required"})
			continue
		}
		if first, dup := seen[p.Name]; dup {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("duplicate name %q (first defined at proxies[%d])", p.Name, first),
			})
			continue
		}
		seen[p.Name] = i
	}

	for i, g := range cfg.ProxyGroups {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("proxy-groups[%d].name", i),
				Message: "name is required",
			})
		}
	}

	for i, r := range cfg.Rules {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("rules[%d]", i),
				Message: "rule must not be empty",
			})
		}
	}

	for _, port := range []struct {
		field string
		value int
	}{
		{"port", cfg.Port},
		{"socks-port", cfg.SocksPort},
		{"redir-port", cfg.RedirPort},
		{"mixed-port", cfg.MixedPort},
		{"tproxy-port", cfg.TProxyPort},
	} {
		if port.value < 0 || port.value > 65535 {
			errs = append(errs, FieldError{
				Field:   port.field,
				Message: "port must be between 0 and 65535",
			})
		}
	}

	return errs
}
