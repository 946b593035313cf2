package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationMetrics tracks configuration generation.
type GenerationMetrics struct {
	proxies        prometheus.Gauge
	rulesRewritten prometheus.Gauge
	duration       prometheus.Histogram
}

// NewGenerationMetrics creates and registers generation metrics.
func NewGenerationMetrics(cfg Config, registry *prometheus.Registry) *GenerationMetrics {
	gm := &GenerationMetrics{
		proxies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "generation",
			Name:      "proxies",
			Help:      "Proxies selected by the name prefix in the latest generation",
		}),
		rulesRewritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "generation",
			Name:      "rules_rewritten",
			Help:      "Rules re-targeted at the shared group in the latest generation",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Time to write every instance directory",
			Buckets:   cfg.DurationBuckets,
		}),
	}

	registry.MustRegister(gm.proxies, gm.rulesRewritten, gm.duration)
	return gm
}

// Record stores one generation.
func (gm *GenerationMetrics) Record(proxies, rulesRewritten int, d time.Duration) {
	gm.proxies.Set(float64(proxies))
	gm.rulesRewritten.Set(float64(rulesRewritten))
	gm.duration.Observe(d.Seconds())
}
