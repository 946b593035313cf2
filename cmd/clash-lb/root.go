package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"clashlb/launcher/pkg/cli"
	"clashlb/launcher/pkg/config"
	"clashlb/launcher/pkg/telemetry/logging"
)

// defaultSettingsFile is read when present; --settings makes it required.
const defaultSettingsFile = "clash-lb.yaml"

var rootFlags struct {
	settings  string
	workDir   string
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "clash-lb",
	Short: "Run a load-balanced fleet of single-proxy Clash instances",
	Long: `clash-lb turns one Clash configuration describing many proxies into N
independent Clash instances, one proxy each, fronted by a single HAProxy
listener. Each instance listens on its own port and HAProxy balances across
them, so traffic fails over between proxies.

Generated files live under the work directory:
  clash_<i>/config.yml   instance configuration
  clash_<i>/output.log   instance output
  haproxy.cfg            load balancer configuration
  launch.sh              equivalent shell procedure, for reference
  pids.txt               processes of the latest launch`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and exits with its status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.settings, "settings", "s", defaultSettingsFile, "settings file path")
	rootCmd.PersistentFlags().StringVar(&rootFlags.workDir, "work-dir", "", "override the work directory")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFormat, "log-format", "", "override log format (json, text, console)")
}

// setup loads settings into the config singleton and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadSettings(rootFlags.settings, cmd.Flags().Changed("settings"))
	if err != nil {
		return err
	}
	config.SetConfig(cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return cli.WrapConfigError("telemetry.logging", "cannot create logger", err)
	}
	slog.SetDefault(logger.Slog())
	return nil
}

func loadSettings(path string, explicit bool) (*config.Config, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.WrapConfigError("settings", "cannot load settings", err)
	}

	if rootFlags.workDir != "" {
		cfg.WorkDir = rootFlags.workDir
	}
	if rootFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		cfg.Telemetry.Logging.Format = rootFlags.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return nil, cli.WrapConfigError("settings", "invalid flag override", err)
	}

	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, cli.WrapConfigError("work_dir", "cannot resolve work directory", err)
	}
	cfg.WorkDir = workDir
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
		Writer:        os.Stderr,
	})
}
