// Package instance derives one single-proxy Clash configuration per bucket
// and writes each into its own directory under the work root.
package instance

import (
	"fmt"
	"path/filepath"
	"strconv"

	"clashlb/launcher/pkg/clash"
	"clashlb/launcher/pkg/partition"
)

// File layout under the work root.
const (
	DirPrefix      = "clash_"
	ConfigFileName = "config.yml"
	LogFileName    = "output.log"
)

// MaxPort is the highest assignable listen port.
const MaxPort = 65535

// Instance is one materialized proxy-engine instance.
type Instance struct {
	Index      int
	ProxyName  string
	Port       int
	Dir        string
	ConfigPath string
	LogPath    string
	Config     *clash.Config
}

// Dir returns the private directory of instance index under root.
func Dir(root string, index int) string {
	return filepath.Join(root, DirPrefix+strconv.Itoa(index))
}

// Port returns the listen port assigned to instance index.
func Port(start, index int) int {
	return start + index
}

// Ports returns the contiguous port range assigned to n instances.
func Ports(start, n int) []int {
	ports := make([]int, n)
	for i := range ports {
		ports[i] = Port(start, i)
	}
	return ports
}

// CheckPortRange reports whether n instances starting at start fit into
// the valid port space.
func CheckPortRange(start, n int) error {
	if start < 1 || start > MaxPort {
		return fmt.Errorf("starting port %d must be between 1 and %d", start, MaxPort)
	}
	if last := start + n - 1; last > MaxPort {
		return fmt.Errorf("%d instances starting at port %d would need port %d (max %d)", n, start, last, MaxPort)
	}
	return nil
}

// Derive builds the configuration of one instance without modifying base.
// The control-plane fields and the fixed listen ports are disabled and only
// the port selected by mode is set.
func Derive(base *clash.Config, rules []string, bucket partition.Bucket, mode clash.ListenMode, port int) *clash.Config {
	cfg := base.Clone()

	cfg.ExternalController = ""
	cfg.RedirPort = 0
	cfg.SocksPort = 0
	cfg.Port = 0
	cfg.MixedPort = 0
	cfg.TProxyPort = 0
	cfg.AllowLAN = false

	cfg.Rules = make([]string, len(rules))
	copy(cfg.Rules, rules)
	cfg.Proxies = []clash.Proxy{bucket.Proxy.Clone()}
	cfg.ProxyGroups = []clash.ProxyGroup{bucket.Group.Clone()}
	cfg.SetListenPort(mode, port)

	return cfg
}
