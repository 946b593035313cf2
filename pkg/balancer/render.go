package balancer

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"text/template"
	"time"
)

//go:embed templates/haproxy.cfg.tmpl
var templateFS embed.FS

// Renderer turns a Config into configuration text. Implementations must be
// pure: the same Config always yields the same bytes.
type Renderer interface {
	Render(cfg *Config) ([]byte, error)
}

// HAProxyRenderer renders Config with the embedded haproxy.cfg template.
type HAProxyRenderer struct {
	tmpl *template.Template
}

// NewHAProxyRenderer parses the embedded template.
func NewHAProxyRenderer() (*HAProxyRenderer, error) {
	tmpl, err := template.New("haproxy.cfg.tmpl").
		Funcs(template.FuncMap{"ms": milliseconds}).
		ParseFS(templateFS, "templates/haproxy.cfg.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse haproxy template: %w", err)
	}
	return &HAProxyRenderer{tmpl: tmpl}, nil
}

// Render implements Renderer.
func (r *HAProxyRenderer) Render(cfg *Config) ([]byte, error) {
	if cfg == nil || len(cfg.Backends) == 0 {
		return nil, ErrNoBackends
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to render haproxy config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders cfg with r and writes it to path.
func WriteFile(r Renderer, cfg *Config, path string) error {
	data, err := r.Render(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func milliseconds(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
