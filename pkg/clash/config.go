package clash

// Config is the subset of a Clash configuration that the launcher understands.
type Config struct {
	// Port is the HTTP proxy listen port. Zero disables it.
	Port int `yaml:"port"`

	// SocksPort is the SOCKS5 listen port. Zero disables it.
	SocksPort int `yaml:"socks-port"`

	// RedirPort is the transparent redirect port. Zero disables it.
	RedirPort int `yaml:"redir-port"`

	// MixedPort serves HTTP and SOCKS5 on one port.
	MixedPort int `yaml:"mixed-port,omitempty"`

	// TProxyPort is the TPROXY listen port.
	TProxyPort int `yaml:"tproxy-port,omitempty"`

	// AllowLAN exposes the listeners beyond the loopback interface.
	AllowLAN bool `yaml:"allow-lan"`

	// ExternalController is the RESTful control endpoint. Empty disables it.
	ExternalController string `yaml:"external-controller"`

	// Proxies are the upstream proxy descriptors.
	Proxies []Proxy `yaml:"proxies"`

	// ProxyGroups are the routing targets referenced by rules.
	ProxyGroups []ProxyGroup `yaml:"proxy-groups"`

	// Rules are comma-delimited routing rules, action last.
	Rules []string `yaml:"rules"`

	// Extra holds every other top-level key untouched.
	Extra map[string]any `yaml:",inline"`
}

// Proxy is one upstream proxy descriptor. Only the name is interpreted;
// all other fields (type, server, port, cipher, ...) pass through in Fields.
type Proxy struct {
	Name   string         `yaml:"name"`
	Fields map[string]any `yaml:",inline"`
}

// ProxyGroup is a named routing target over a list of proxies.
type ProxyGroup struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	URL      string   `yaml:"url,omitempty"`
	Interval int      `yaml:"interval,omitempty"`
	Proxies  []string `yaml:"proxies"`
}

// Group types understood by the launcher.
const (
	GroupTypeFallback = "fallback"
	GroupTypeSelect   = "select"
	GroupTypeURLTest  = "url-test"
)

// Legacy section names accepted on load.
const (
	legacyProxyKey      = "Proxy"
	legacyProxyGroupKey = "Proxy Group"
	legacyRuleKey       = "Rule"
)

// ProxyNames returns the names of cfg's proxies in order.
func (c *Config) ProxyNames() []string {
	names := make([]string, len(c.Proxies))
	for i, p := range c.Proxies {
		names[i] = p.Name
	}
	return names
}

// Clone returns a deep copy of c. Nested values of Extra and of proxy fields
// are copied recursively so the clone shares no mutable state with c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.Proxies != nil {
		out.Proxies = make([]Proxy, len(c.Proxies))
		for i, p := range c.Proxies {
			out.Proxies[i] = p.Clone()
		}
	}
	if c.ProxyGroups != nil {
		out.ProxyGroups = make([]ProxyGroup, len(c.ProxyGroups))
		for i, g := range c.ProxyGroups {
			out.ProxyGroups[i] = g.Clone()
		}
	}
	if c.Rules != nil {
		out.Rules = make([]string, len(c.Rules))
		copy(out.Rules, c.Rules)
	}
	out.Extra = copyMap(c.Extra)
	return &out
}

// Clone returns a deep copy of p.
func (p Proxy) Clone() Proxy {
	return Proxy{Name: p.Name, Fields: copyMap(p.Fields)}
}

// Clone returns a deep copy of g.
func (g ProxyGroup) Clone() ProxyGroup {
	if g.Proxies != nil {
		members := make([]string, len(g.Proxies))
		copy(members, g.Proxies)
		g.Proxies = members
	}
	return g
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, vv := range t {
			out[k] = copyValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = copyValue(vv)
		}
		return out
	default:
		return v
	}
}
