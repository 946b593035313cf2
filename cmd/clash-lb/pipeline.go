package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"clashlb/launcher/pkg/balancer"
	"clashlb/launcher/pkg/clash"
	"clashlb/launcher/pkg/cli"
	"clashlb/launcher/pkg/config"
	"clashlb/launcher/pkg/fleet"
	"clashlb/launcher/pkg/history"
	"clashlb/launcher/pkg/instance"
	"clashlb/launcher/pkg/partition"
	"clashlb/launcher/pkg/telemetry/logging"
	"clashlb/launcher/pkg/telemetry/metrics"
)

// launchOptions are the per-invocation inputs of one generation.
type launchOptions struct {
	Conf        string
	Port        int
	Name        string
	Mode        clash.ListenMode
	DryRun      bool
	Concurrency int
	Output      cli.OutputFormat
}

// launcher runs the generate-then-launch pipeline. One launcher serves every
// relaunch of a watched or scheduled fleet.
type launcher struct {
	opts      launchOptions
	settings  *config.Config
	logger    *slog.Logger
	manager   *fleet.Manager
	metrics   *metrics.Collector
	history   *history.Store
	progress  cli.ProgressReporter
	out       io.Writer
	formatter cli.Formatter
}

// newLauncher wires the pipeline. fleetOpts are applied after the defaults,
// so tests can replace the spawner and terminator.
func newLauncher(ctx context.Context, opts launchOptions, settings *config.Config, out io.Writer, progress cli.ProgressReporter, logger *slog.Logger, fleetOpts ...fleet.Option) (*launcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if progress == nil {
		progress = cli.NopProgress{}
	}

	formatter, err := cli.NewFormatter(opts.Output)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(metrics.Config{
		Enabled:   settings.Telemetry.Metrics.Enabled,
		Namespace: settings.Telemetry.Metrics.Namespace,
	}, nil)

	l := &launcher{
		opts:      opts,
		settings:  settings,
		logger:    logger.With("component", "launcher"),
		metrics:   collector,
		progress:  progress,
		out:       out,
		formatter: formatter,
	}

	managerOpts := []fleet.Option{
		fleet.WithLogger(logger),
		fleet.WithRecorder(&progressRecorder{Recorder: collector, progress: progress}),
	}
	l.manager = fleet.NewManager(append(managerOpts, fleetOpts...)...)

	if settings.History.Enabled {
		store, err := history.Open(ctx, history.Config{Path: settings.HistoryPath()})
		if err != nil {
			l.logger.Warn("launch history disabled", "path", settings.HistoryPath(), "error", err)
		} else {
			l.history = store
		}
	}

	return l, nil
}

// Close releases the history store.
func (l *launcher) Close() error {
	if l.history == nil {
		return nil
	}
	return l.history.Close()
}

// Run performs one generation and, unless dry-run is set, one launch.
// Configuration problems are returned as *cli.ConfigError and generation
// I/O failures as *cli.CommandError. A failed launch procedure is logged
// and reported in the summary, not returned.
func (l *launcher) Run(ctx context.Context) error {
	ctx = logging.WithLaunchID(ctx, uuid.NewString())
	started := time.Now()
	root, err := filepath.Abs(l.settings.WorkDir)
	if err != nil {
		return cli.WrapConfigError("work_dir", "cannot resolve work directory", err)
	}

	base, err := clash.Load(l.opts.Conf)
	if err != nil {
		return cli.WrapConfigError("conf", "cannot load base configuration", err)
	}

	buckets, err := partition.Partition(base.Proxies, l.opts.Name)
	if err != nil {
		if errors.Is(err, partition.ErrEmptySelection) {
			return cli.WrapConfigError("name", fmt.Sprintf("no proxy name starts with %q (available: %s)",
				l.opts.Name, strings.Join(base.ProxyNames(), ", ")), err)
		}
		return cli.NewCommandError("launch", err)
	}
	if err := instance.CheckPortRange(l.opts.Port, len(buckets)); err != nil {
		return cli.WrapConfigError("port", "port range does not fit", err)
	}

	rules := partition.RewriteRules(base.Rules, partition.GroupName)
	rewritten := 0
	for i := range rules {
		if rules[i] != base.Rules[i] {
			rewritten++
		}
	}

	l.logger.InfoContext(ctx, "generating fleet",
		"conf", l.opts.Conf,
		"proxies", len(buckets),
		"rules_rewritten", rewritten,
		"start_port", l.opts.Port,
		"mode", string(l.opts.Mode),
		"root", root,
	)

	materializer := instance.NewMaterializer(instance.Options{
		Root:        root,
		StartPort:   l.opts.Port,
		Mode:        l.opts.Mode,
		Concurrency: l.opts.Concurrency,
	}, l.logger)
	instances, err := materializer.Materialize(ctx, base, rules, buckets)
	if err != nil {
		return cli.NewCommandError("launch", err)
	}

	lbConfig, err := balancer.Generate(l.opts.Mode, instance.Ports(l.opts.Port, len(instances)), l.balancerOptions())
	if err != nil {
		return cli.NewCommandError("launch", err)
	}
	renderer, err := balancer.NewHAProxyRenderer()
	if err != nil {
		return cli.NewCommandError("launch", err)
	}
	lbPath := filepath.Join(root, balancer.ConfigFileName)
	if err := balancer.WriteFile(renderer, lbConfig, lbPath); err != nil {
		return cli.NewCommandError("launch", err)
	}
	l.logger.DebugContext(ctx, "load balancer configured",
		"path", lbPath,
		"listen", lbConfig.Listen,
		"backends", lbConfig.Ports(),
	)

	plan := fleet.BuildPlan(root, instances, lbPath, fleet.Binaries{
		Clash:   l.settings.Binaries.Clash,
		HAProxy: l.settings.Binaries.HAProxy,
	})
	scriptPath, err := plan.WriteScript()
	if err != nil {
		return cli.NewCommandError("launch", err)
	}

	l.metrics.RecordGeneration(len(instances), rewritten, time.Since(started))
	if err := l.manager.MarkGenerated(); err != nil {
		return cli.NewCommandError("launch", err)
	}

	summary := newLaunchSummary(logging.GetLaunchID(ctx), root, instances, lbPath, scriptPath, lbConfig.Listen)

	if l.opts.DryRun {
		if err := l.manager.DryRun(); err != nil {
			return cli.NewCommandError("launch", err)
		}
		summary.DryRun = true
		l.writeMetrics(ctx)
		return l.formatter.FormatTo(l.out, summary)
	}

	l.progress.Start(int64(len(plan.Steps())))
	res, err := l.manager.Launch(ctx, plan)
	if err != nil {
		l.progress.Error(err)
		l.logger.ErrorContext(ctx, "launch procedure failed, generated files are kept", "error", err)
	} else {
		l.progress.Finish()
	}

	if res != nil {
		l.recordHistory(ctx, res)
		summary.applyResult(res)
	}
	l.writeMetrics(ctx)
	return l.formatter.FormatTo(l.out, summary)
}

func (l *launcher) balancerOptions() balancer.Options {
	b := l.settings.Balancer
	return balancer.Options{
		Listen:        b.Listen,
		Algorithm:     b.Algorithm,
		CheckInterval: b.CheckInterval,
		Timeouts: balancer.Timeouts{
			Connect: b.Timeouts.Connect,
			Client:  b.Timeouts.Client,
			Server:  b.Timeouts.Server,
		},
	}
}

func (l *launcher) recordHistory(ctx context.Context, res *fleet.Result) {
	if l.history == nil {
		return
	}
	if err := l.history.Record(ctx, res); err != nil {
		l.logger.WarnContext(ctx, "failed to record launch", "error", err)
		return
	}
	if keep := l.settings.History.Keep; keep > 0 {
		pruned, err := l.history.Prune(ctx, keep)
		if err != nil {
			l.logger.WarnContext(ctx, "failed to prune launch history", "error", err)
			return
		}
		if pruned > 0 {
			l.logger.DebugContext(ctx, "pruned launch history", "removed", pruned, "keep", keep)
		}
	}
}

func (l *launcher) writeMetrics(ctx context.Context) {
	if !l.settings.Telemetry.Metrics.Enabled {
		return
	}
	path := l.settings.MetricsPath()
	if err := l.metrics.WriteToTextfile(path); err != nil {
		l.logger.WarnContext(ctx, "failed to write metrics", "path", path, "error", err)
	}
}

// progressRecorder advances the progress bar on every spawn.
type progressRecorder struct {
	fleet.Recorder
	progress cli.ProgressReporter
	done     atomic.Int64
}

func (r *progressRecorder) RecordSpawn(role fleet.Role, ok bool) {
	r.Recorder.RecordSpawn(role, ok)
	r.progress.Update(r.done.Add(1))
}

func (r *progressRecorder) RecordLaunch(status fleet.Status, instances int, d time.Duration) {
	r.Recorder.RecordLaunch(status, instances, d)
	r.done.Store(0)
}

type instanceSummary struct {
	Index  int    `json:"index"`
	Proxy  string `json:"proxy"`
	Port   int    `json:"port"`
	Config string `json:"config"`
	PID    int    `json:"pid,omitempty"`
	Error  string `json:"error,omitempty"`
}

// launchSummary is what launch prints.
type launchSummary struct {
	LaunchID       string            `json:"launch_id"`
	DryRun         bool              `json:"dry_run"`
	Root           string            `json:"root"`
	BalancerConfig string            `json:"balancer_config"`
	Script         string            `json:"script"`
	Listen         string            `json:"listen"`
	Status         fleet.Status      `json:"status,omitempty"`
	BalancerPID    int               `json:"balancer_pid,omitempty"`
	Terminated     int               `json:"terminated"`
	Instances      []instanceSummary `json:"instances"`
	Errors         []string          `json:"errors,omitempty"`
}

func newLaunchSummary(launchID, root string, instances []instance.Instance, lbPath, scriptPath, listen string) *launchSummary {
	s := &launchSummary{
		LaunchID:       launchID,
		Root:           root,
		BalancerConfig: lbPath,
		Script:         scriptPath,
		Listen:         listen,
		Instances:      make([]instanceSummary, len(instances)),
	}
	for i, inst := range instances {
		s.Instances[i] = instanceSummary{
			Index:  inst.Index,
			Proxy:  inst.ProxyName,
			Port:   inst.Port,
			Config: inst.ConfigPath,
		}
	}
	return s
}

func (s *launchSummary) applyResult(res *fleet.Result) {
	s.Status = res.Status
	s.Terminated = len(res.Terminated)
	if res.Err != nil {
		s.Errors = append(s.Errors, res.Err.Error())
	}
	for _, sp := range res.Spawned {
		if sp.Err != nil {
			s.Errors = append(s.Errors, sp.Err.Error())
		}
		if sp.Role == fleet.RoleBalancer {
			s.BalancerPID = sp.PID
			continue
		}
		for i := range s.Instances {
			if s.Instances[i].Index != sp.Index {
				continue
			}
			s.Instances[i].PID = sp.PID
			if sp.Err != nil {
				s.Instances[i].Error = sp.Err.Error()
			}
		}
	}
}

func (s *launchSummary) String() string {
	var sb strings.Builder
	if s.DryRun {
		fmt.Fprintf(&sb, "Dry run: generated %d instances under %s\n", len(s.Instances), s.Root)
	} else {
		fmt.Fprintf(&sb, "Launch %s: %s (%d instances, %d previous processes stopped)\n",
			s.LaunchID, s.Status, len(s.Instances), s.Terminated)
	}
	fmt.Fprintf(&sb, "Balancer: %s -> %s\n", s.Listen, s.BalancerConfig)
	if s.BalancerPID > 0 {
		fmt.Fprintf(&sb, "Balancer PID: %d\n", s.BalancerPID)
	}
	fmt.Fprintf(&sb, "Script: %s\n\n", s.Script)

	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tPROXY\tPORT\tPID\tCONFIG")
	for _, inst := range s.Instances {
		pid := "-"
		if inst.PID > 0 {
			pid = fmt.Sprint(inst.PID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", inst.Index, inst.Proxy, inst.Port, pid, inst.Config)
	}
	tw.Flush()

	for _, e := range s.Errors {
		fmt.Fprintf(&sb, "error: %s\n", e)
	}
	return sb.String()
}
