package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces a sensitive value.
const Redacted = "***"

// sensitiveKeys are proxy option names whose values are credentials.
var sensitiveKeys = []string{
	"password",
	"uuid",
	"psk",
	"private-key",
	"auth-str",
	"token",
	"secret",
}

var userinfoPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^/@\s]+@`)

// Redactor masks proxy credentials in log attributes.
type Redactor struct {
	keys []string
}

// NewRedactor creates a Redactor for the built-in sensitive keys.
func NewRedactor() *Redactor {
	return &Redactor{keys: sensitiveKeys}
}

// IsSensitiveKey reports whether values under key must be masked. Matching
// is case-insensitive and treats '_' like '-'.
func (r *Redactor) IsSensitiveKey(key string) bool {
	k := strings.ReplaceAll(strings.ToLower(key), "_", "-")
	for _, s := range r.keys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// RedactString masks URL userinfo such as ss://user:pass@host.
func (r *Redactor) RedactString(value string) string {
	if !strings.Contains(value, "@") {
		return value
	}
	return userinfoPattern.ReplaceAllString(value, "${1}"+Redacted+"@")
}

// RedactAttr masks a single attribute. Maps are copied and masked
// recursively so a whole proxy definition can be logged.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if r.IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if v, ok := r.redactAny(a.Value.Any()); ok {
			return slog.Any(a.Key, v)
		}
	}
	return a
}

func (r *Redactor) redactAny(v any) (any, bool) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if r.IsSensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			if redacted, ok := r.redactAny(item); ok {
				out[k] = redacted
			} else {
				out[k] = item
			}
		}
		return out, true
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			if redacted, ok := r.redactAny(item); ok {
				out[i] = redacted
			} else {
				out[i] = item
			}
		}
		return out, true
	case string:
		return r.RedactString(val), true
	default:
		return nil, false
	}
}
