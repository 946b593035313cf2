// Package balancer builds the HAProxy front end whose backends are the
// listen ports of the instance fleet.
package balancer

import (
	"errors"
	"fmt"
	"time"

	"clashlb/launcher/pkg/clash"
)

// ConfigFileName is the load-balancer configuration file under the work root.
const ConfigFileName = "haproxy.cfg"

// Transport is the HAProxy proxy mode.
type Transport string

const (
	TransportTCP  Transport = "tcp"
	TransportHTTP Transport = "http"
)

// Algorithms accepted for the backend balance directive.
var Algorithms = []string{"roundrobin", "first", "leastconn", "source"}

// ValidAlgorithm reports whether name is one of Algorithms.
func ValidAlgorithm(name string) bool {
	for _, a := range Algorithms {
		if a == name {
			return true
		}
	}
	return false
}

// ErrNoBackends is returned when asked to balance over zero instances.
var ErrNoBackends = errors.New("load balancer needs at least one backend")

// TransportFor maps a listen mode to the HAProxy transport carrying it.
func TransportFor(mode clash.ListenMode) (Transport, error) {
	switch mode {
	case clash.ModeSOCKS5:
		return TransportTCP, nil
	case clash.ModeHTTP:
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("no transport for listen mode %q", mode)
	}
}

// Backend is one upstream: a single instance's listen port.
type Backend struct {
	Name    string
	Address string
	Port    int
}

// Timeouts are the HAProxy connect/client/server timeouts.
type Timeouts struct {
	Connect time.Duration
	Client  time.Duration
	Server  time.Duration
}

// Options carries the front-end settings that do not depend on the fleet.
type Options struct {
	Listen        string
	Algorithm     string
	CheckInterval time.Duration
	Timeouts      Timeouts
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Listen:        "127.0.0.1:7890",
		Algorithm:     "roundrobin",
		CheckInterval: 2 * time.Second,
		Timeouts: Timeouts{
			Connect: 5 * time.Second,
			Client:  60 * time.Second,
			Server:  60 * time.Second,
		},
	}
}

// Config is the load-balancer configuration handed to a Renderer.
type Config struct {
	Transport     Transport
	Listen        string
	Algorithm     string
	CheckInterval time.Duration
	Timeouts      Timeouts
	Backends      []Backend
}

// Ports returns the backend ports in order.
func (c *Config) Ports() []int {
	ports := make([]int, len(c.Backends))
	for i, b := range c.Backends {
		ports[i] = b.Port
	}
	return ports
}

// Generate builds the load-balancer configuration for instances listening
// on ports. Backends keep the order of ports.
func Generate(mode clash.ListenMode, ports []int, opts Options) (*Config, error) {
	if len(ports) == 0 {
		return nil, ErrNoBackends
	}
	transport, err := TransportFor(mode)
	if err != nil {
		return nil, err
	}

	defaults := DefaultOptions()
	if opts.Listen == "" {
		opts.Listen = defaults.Listen
	}
	if opts.Algorithm == "" {
		opts.Algorithm = defaults.Algorithm
	}
	if !ValidAlgorithm(opts.Algorithm) {
		return nil, fmt.Errorf("unknown balance algorithm %q", opts.Algorithm)
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = defaults.CheckInterval
	}
	if opts.Timeouts.Connect <= 0 {
		opts.Timeouts.Connect = defaults.Timeouts.Connect
	}
	if opts.Timeouts.Client <= 0 {
		opts.Timeouts.Client = defaults.Timeouts.Client
	}
	if opts.Timeouts.Server <= 0 {
		opts.Timeouts.Server = defaults.Timeouts.Server
	}

	backends := make([]Backend, len(ports))
	for i, port := range ports {
		backends[i] = Backend{
			Name:    fmt.Sprintf("clash_%d", i),
			Address: "127.0.0.1",
			Port:    port,
		}
	}

	return &Config{
		Transport:     transport,
		Listen:        opts.Listen,
		Algorithm:     opts.Algorithm,
		CheckInterval: opts.CheckInterval,
		Timeouts:      opts.Timeouts,
		Backends:      backends,
	}, nil
}
