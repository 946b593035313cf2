package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clashlb/launcher/pkg/fleet"
)

// FleetMetrics tracks process lifecycle events.
type FleetMetrics struct {
	spawnsTotal       *prometheus.CounterVec
	terminationsTotal *prometheus.CounterVec
	launchesTotal     *prometheus.CounterVec
	instances         prometheus.Gauge
	launchDuration    prometheus.Histogram
	lastLaunch        prometheus.Gauge
}

// NewFleetMetrics creates and registers fleet metrics.
func NewFleetMetrics(cfg Config, registry *prometheus.Registry) *FleetMetrics {
	fm := &FleetMetrics{
		spawnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fleet",
				Name:      "spawns_total",
				Help:      "Process spawn attempts",
			},
			[]string{"role", "result"},
		),
		terminationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fleet",
				Name:      "terminations_total",
				Help:      "Previously tracked processes signalled to exit",
			},
			[]string{"outcome"},
		),
		launchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fleet",
				Name:      "launches_total",
				Help:      "Launches by final status",
			},
			[]string{"status"},
		),
		instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "fleet",
			Name:      "instances",
			Help:      "Instances in the latest launch",
		}),
		launchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "fleet",
			Name:      "launch_duration_seconds",
			Help:      "Duration of the launch procedure",
			Buckets:   cfg.DurationBuckets,
		}),
		lastLaunch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "fleet",
			Name:      "last_launch_timestamp_seconds",
			Help:      "Unix time of the latest launch",
		}),
	}

	registry.MustRegister(
		fm.spawnsTotal,
		fm.terminationsTotal,
		fm.launchesTotal,
		fm.instances,
		fm.launchDuration,
		fm.lastLaunch,
	)
	return fm
}

// RecordSpawn counts one spawn attempt.
func (fm *FleetMetrics) RecordSpawn(role fleet.Role, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	fm.spawnsTotal.WithLabelValues(string(role), result).Inc()
}

// RecordTermination counts one signalled pid.
func (fm *FleetMetrics) RecordTermination(outcome string) {
	fm.terminationsTotal.WithLabelValues(outcome).Inc()
}

// RecordLaunch records the outcome of one launch.
func (fm *FleetMetrics) RecordLaunch(status fleet.Status, instances int, d time.Duration) {
	fm.launchesTotal.WithLabelValues(string(status)).Inc()
	fm.instances.Set(float64(instances))
	fm.launchDuration.Observe(d.Seconds())
	fm.lastLaunch.SetToCurrentTime()
}
