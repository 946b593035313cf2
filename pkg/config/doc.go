// Package config provides the launcher's own settings, separate from the
// Clash configuration it splits.
//
// Settings are read from an optional YAML file with environment variable
// overrides:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("clash-lb.yaml")
//
// An empty path skips the file and yields defaults plus overrides.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CLASHLB_SECTION_FIELD:
//
//   - CLASHLB_WORK_DIR overrides work_dir
//   - CLASHLB_BINARIES_CLASH overrides binaries.clash
//   - CLASHLB_BALANCER_LISTEN overrides balancer.listen
//   - CLASHLB_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	work_dir: /var/run/clash-lb
//	binaries:
//	  clash: /usr/local/bin/clash
//	  haproxy: /usr/sbin/haproxy
//	balancer:
//	  listen: "0.0.0.0:7890"
//	  algorithm: leastconn
//	telemetry:
//	  logging:
//	    level: debug
//	    format: console
//	history:
//	  enabled: false
//
// The command layer installs the loaded settings with SetConfig; GetConfig and
// MustGetConfig are safe for concurrent use.
package config
