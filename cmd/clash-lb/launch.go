package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"clashlb/launcher/pkg/clash"
	"clashlb/launcher/pkg/cli"
	"clashlb/launcher/pkg/config"
	"clashlb/launcher/pkg/reload"
	"clashlb/launcher/pkg/telemetry/logging"
)

type launchFlags struct {
	conf        string
	port        int
	name        string
	mode        string
	dryRun      bool
	watch       bool
	schedule    string
	output      string
	concurrency int
}

var launchCmdFlags launchFlags

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Generate per-proxy instances and launch them behind HAProxy",
	Long: `Generate one Clash instance per proxy whose name starts with --name, write
the HAProxy configuration balancing over them, stop the fleet recorded by the
previous launch, then start every instance followed by HAProxy.

Instance i listens on --port + i. With --dry-run only the files are written.

With --watch the fleet is regenerated and relaunched whenever the base
configuration changes; with --relaunch-schedule it is relaunched on a cron
schedule. Both keep the command running until interrupted.`,
	Example: `  clash-lb launch --conf config.yaml --port 7000 --name US
  clash-lb launch -c config.yaml -p 7000 -m http --dry-run
  clash-lb launch -c config.yaml -p 7000 --watch --relaunch-schedule "0 4 * * *"`,
	RunE: runLaunch,
}

func init() {
	f := launchCmd.Flags()
	f.StringVarP(&launchCmdFlags.conf, "conf", "c", "", "base Clash configuration (required)")
	f.IntVarP(&launchCmdFlags.port, "port", "p", 0, "listen port of the first instance (required)")
	f.StringVarP(&launchCmdFlags.name, "name", "n", "", "only use proxies whose name starts with this prefix")
	f.StringVarP(&launchCmdFlags.mode, "mode", "m", string(clash.ModeSOCKS5), "instance listen mode (socks5, http)")
	f.BoolVar(&launchCmdFlags.dryRun, "dry-run", false, "write configurations without starting processes")
	f.BoolVar(&launchCmdFlags.watch, "watch", false, "relaunch when the base configuration changes")
	f.StringVar(&launchCmdFlags.schedule, "relaunch-schedule", "", "relaunch on a cron schedule (e.g. \"0 4 * * *\")")
	f.StringVarP(&launchCmdFlags.output, "output", "o", "text", "output format (text, json)")
	f.IntVar(&launchCmdFlags.concurrency, "concurrency", 0, "parallel configuration writes (0 = one per instance)")

	_ = launchCmd.MarkFlagRequired("conf")
	_ = launchCmd.MarkFlagRequired("port")

	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	opts, err := launchCmdFlags.options()
	if err != nil {
		return err
	}
	if opts.DryRun && (launchCmdFlags.watch || launchCmdFlags.schedule != "") {
		return cli.NewConfigError("dry-run", "cannot be combined with --watch or --relaunch-schedule")
	}

	settings := config.MustGetConfig()
	logger := slog.Default()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()
	ctx = logging.WithCommand(ctx, "launch")

	var progress cli.ProgressReporter = cli.NopProgress{}
	if opts.Output == cli.FormatText {
		progress = cli.NewTerminalProgress(os.Stderr, "Spawning")
	}

	l, err := newLauncher(ctx, opts, settings, cmd.OutOrStdout(), progress, logger)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.Run(ctx); err != nil {
		return err
	}
	if !launchCmdFlags.watch && launchCmdFlags.schedule == "" {
		return nil
	}
	return supervise(ctx, l.Run, opts.Conf, launchCmdFlags.watch, launchCmdFlags.schedule, settings, logger)
}

func (f launchFlags) options() (launchOptions, error) {
	if f.port < 1 || f.port > 65535 {
		return launchOptions{}, cli.NewConfigError("port", fmt.Sprintf("%d is not between 1 and 65535", f.port))
	}
	mode, err := clash.ParseListenMode(f.mode)
	if err != nil {
		return launchOptions{}, cli.WrapConfigError("mode", "invalid listen mode", err)
	}
	output, err := cli.ParseOutputFormat(f.output)
	if err != nil {
		return launchOptions{}, err
	}
	if output == cli.FormatCSV {
		return launchOptions{}, cli.NewConfigError("output", "launch supports text and json")
	}
	if f.concurrency < 0 {
		return launchOptions{}, cli.NewConfigError("concurrency", "cannot be negative")
	}
	return launchOptions{
		Conf:        f.conf,
		Port:        f.port,
		Name:        f.name,
		Mode:        mode,
		DryRun:      f.dryRun,
		Concurrency: f.concurrency,
		Output:      output,
	}, nil
}

// supervise relaunches on config changes and/or a cron schedule until ctx
// is cancelled. Relaunches never overlap.
func supervise(ctx context.Context, run reload.Func, conf string, watch bool, schedule string, settings *config.Config, logger *slog.Logger) error {
	relaunch := reload.Serialize(run)
	g, gctx := errgroup.WithContext(ctx)

	if watch {
		w, err := reload.NewFileWatcher(conf, settings.Watch.Debounce, logger)
		if err != nil {
			return cli.NewCommandError("launch", err)
		}
		defer w.Stop()
		g.Go(func() error {
			return w.Watch(gctx, relaunch)
		})
	}

	if schedule != "" {
		s, err := reload.NewScheduler(schedule, logger)
		if err != nil {
			return cli.WrapConfigError("relaunch-schedule", "invalid cron expression", err)
		}
		if err := s.Start(gctx, relaunch); err != nil {
			return cli.NewCommandError("launch", err)
		}
		defer s.Stop()
		if next := s.NextRun(); next != nil {
			logger.InfoContext(ctx, "next scheduled relaunch", "at", next.Format("2006-01-02 15:04:05"))
		}
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("launch", err)
	}
	logger.InfoContext(ctx, "supervision stopped, the fleet keeps running")
	return nil
}
