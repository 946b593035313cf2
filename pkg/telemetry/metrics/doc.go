// Package metrics collects Prometheus metrics for fleet generation and
// launches.
//
// clash-lb is a short-lived command, so metrics are not scraped over HTTP.
// After each launch the registry is written to a textfile that the node
// exporter's textfile collector can pick up:
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true, Namespace: "clashlb"}, nil)
//	manager := fleet.NewManager(fleet.WithRecorder(collector))
//	...
//	err := collector.WriteToTextfile("/var/lib/node_exporter/clashlb.prom")
//
// Metrics:
//   - clashlb_generation_proxies: proxies selected by the name prefix
//   - clashlb_generation_rules_rewritten: rules re-targeted at the shared group
//   - clashlb_generation_duration_seconds: time to write every instance
//   - clashlb_fleet_spawns_total: spawn attempts by role and result
//   - clashlb_fleet_terminations_total: previous processes signalled, by outcome
//   - clashlb_fleet_launches_total: launches by status
//   - clashlb_fleet_instances: instances in the latest launch
//   - clashlb_fleet_launch_duration_seconds: launch procedure latency
//   - clashlb_fleet_last_launch_timestamp_seconds: time of the latest launch
package metrics
