package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clashlb/launcher/pkg/fleet"
)

// Config configures the collector.
type Config struct {
	// Enabled turns recording on. A disabled collector ignores every call.
	Enabled bool

	// Namespace prefixes metric names. Default: "clashlb"
	Namespace string

	// DurationBuckets are the histogram buckets in seconds.
	DurationBuckets []float64
}

// Collector owns the registry and every metric family. It implements
// fleet.Recorder.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	generation *GenerationMetrics
	fleet      *FleetMetrics
}

var _ fleet.Recorder = (*Collector)(nil)

// NewCollector creates a collector registering into registry, or into a
// fresh registry when nil.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "clashlb"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Process spawns are sub-second; large fleets take a few seconds.
		cfg.DurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	}

	return &Collector{
		config:     cfg,
		registry:   registry,
		generation: NewGenerationMetrics(cfg, registry),
		fleet:      NewFleetMetrics(cfg, registry),
	}
}

// RecordGeneration records one configuration generation.
func (c *Collector) RecordGeneration(proxies, rulesRewritten int, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.generation.Record(proxies, rulesRewritten, d)
}

// RecordSpawn implements fleet.Recorder.
func (c *Collector) RecordSpawn(role fleet.Role, ok bool) {
	if !c.config.Enabled {
		return
	}
	c.fleet.RecordSpawn(role, ok)
}

// RecordTermination implements fleet.Recorder.
func (c *Collector) RecordTermination(outcome string) {
	if !c.config.Enabled {
		return
	}
	c.fleet.RecordTermination(outcome)
}

// RecordLaunch implements fleet.Recorder.
func (c *Collector) RecordLaunch(status fleet.Status, instances int, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.fleet.RecordLaunch(status, instances, d)
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteToTextfile writes the registry in text exposition format to path,
// creating its directory. A disabled collector writes nothing.
func (c *Collector) WriteToTextfile(path string) error {
	if !c.config.Enabled {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
