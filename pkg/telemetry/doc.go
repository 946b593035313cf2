// Package telemetry groups the observability packages of clash-lb.
//
// # Components
//
//   - logging: structured slog logging with launch correlation and
//     proxy credential redaction
//   - metrics: Prometheus metrics for generation and fleet lifecycle,
//     written to a textfile after every launch
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "console"})
//	if err != nil {
//	    return err
//	}
//	ctx = logging.WithLaunchID(ctx, launchID)
//	logger.InfoContext(ctx, "fleet launched", "instances", 3)
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//	collector.RecordLaunch(fleet.StatusLaunched, 3, time.Second)
//	_ = collector.WriteToTextfile("/tmp/clash-load-balance-launcher/metrics.prom")
package telemetry
