package logging

import (
	"log/slog"
	"testing"
)

func TestRedactor_IsSensitiveKey(t *testing.T) {
	r := NewRedactor()
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"obfs-password", true},
		{"Password", true},
		{"uuid", true},
		{"psk", true},
		{"private-key", true},
		{"private_key", true},
		{"auth-str", true},
		{"token", true},
		{"client_secret", true},
		{"server", false},
		{"name", false},
		{"port", false},
		{"launch_id", false},
	}
	for _, tt := range tests {
		if got := r.IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor()
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"ss://YWVzOnBhc3M@1.2.3.4:8388", "ss://***@1.2.3.4:8388"},
		{"fetch http://u:p@host/path failed", "fetch http://***@host/path failed"},
		{"admin@example.com", "admin@example.com"},
	}
	for _, tt := range tests {
		if got := r.RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactor_RedactAttr(t *testing.T) {
	r := NewRedactor()

	if got := r.RedactAttr(slog.Int("psk", 42)); got.Value.String() != Redacted {
		t.Errorf("int under sensitive key = %v", got.Value)
	}
	if got := r.RedactAttr(slog.Int("port", 42)); got.Value.Int64() != 42 {
		t.Errorf("port = %v", got.Value)
	}

	nested := map[string]any{
		"name": "a",
		"plugin-opts": map[string]any{"password": "x", "mode": "tls"},
		"alpn":        []any{"h2", "http://u:p@h"},
	}
	got := r.RedactAttr(slog.Any("proxy", nested)).Value.Any().(map[string]any)

	opts := got["plugin-opts"].(map[string]any)
	if opts["password"] != Redacted || opts["mode"] != "tls" {
		t.Errorf("plugin-opts = %v", opts)
	}
	if alpn := got["alpn"].([]any); alpn[1] != "http://***@h" {
		t.Errorf("alpn = %v", alpn)
	}
	if nested["plugin-opts"].(map[string]any)["password"] != "x" {
		t.Error("RedactAttr modified the input map")
	}
}
