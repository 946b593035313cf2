package clash

import "fmt"

// ListenMode is the protocol an instance accepts client connections on.
type ListenMode string

const (
	// ModeSOCKS5 activates socks-port.
	ModeSOCKS5 ListenMode = "socks5"
	// ModeHTTP activates port.
	ModeHTTP ListenMode = "http"
)

// ParseListenMode validates s as a ListenMode.
func ParseListenMode(s string) (ListenMode, error) {
	switch ListenMode(s) {
	case ModeSOCKS5, ModeHTTP:
		return ListenMode(s), nil
	default:
		return "", fmt.Errorf("unknown listen mode %q: must be 'socks5' or 'http'", s)
	}
}

// PortField returns the configuration key the mode activates.
func (m ListenMode) PortField() string {
	if m == ModeHTTP {
		return "port"
	}
	return "socks-port"
}

// SetListenPort sets the port field selected by m.
func (c *Config) SetListenPort(m ListenMode, port int) {
	if m == ModeHTTP {
		c.Port = port
		return
	}
	c.SocksPort = port
}

// ListenPort returns the port field selected by m.
func (c *Config) ListenPort(m ListenMode) int {
	if m == ModeHTTP {
		return c.Port
	}
	return c.SocksPort
}
