package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clashlb/launcher/pkg/telemetry/logging"
)

// LaunchError means the launch procedure could not run at all.
type LaunchError struct {
	Step string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch failed at %s: %v", e.Step, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Recorder receives lifecycle events, typically for metrics.
type Recorder interface {
	RecordTermination(outcome string)
	RecordSpawn(role Role, ok bool)
	RecordLaunch(status Status, instances int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordTermination(string)                 {}
func (nopRecorder) RecordSpawn(Role, bool)                   {}
func (nopRecorder) RecordLaunch(Status, int, time.Duration) {}

// Manager executes launch plans and tracks the lifecycle state.
type Manager struct {
	spawner    Spawner
	terminator Terminator
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.Mutex
	state State
}

// Option configures a Manager.
type Option func(*Manager)

// WithSpawner replaces the default ExecSpawner.
func WithSpawner(s Spawner) Option {
	return func(m *Manager) { m.spawner = s }
}

// WithTerminator replaces the default SignalTerminator.
func WithTerminator(t Terminator) Option {
	return func(m *Manager) { m.terminator = t }
}

// WithRecorder attaches a Recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager in StateIdle.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		spawner:    ExecSpawner{},
		terminator: SignalTerminator{},
		recorder:   nopRecorder{},
		logger:     slog.Default(),
		now:        time.Now,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "fleet.manager")
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !CanTransition(m.state, to) {
		return &TransitionError{From: m.state, To: to}
	}
	m.logger.Debug("fleet state changed", "from", m.state.String(), "to", to.String())
	m.state = to
	return nil
}

// MarkGenerated records that every instance directory and the
// load-balancer configuration exist on disk.
func (m *Manager) MarkGenerated() error {
	return m.transition(StateGenerated)
}

// DryRun finishes a generation without touching any process or the pid
// file.
func (m *Manager) DryRun() error {
	if err := m.transition(StateDryRunDone); err != nil {
		return err
	}
	m.logger.Info("dry run complete, no processes spawned")
	return nil
}

// Launch terminates the previously tracked fleet and starts the one in
// plan. The launch ID is taken from ctx when present. Individual spawn
// failures are reported in the Result and do not stop the remaining
// spawns. A non-nil error means the procedure could not run; the Result is
// still returned with StatusAborted.
func (m *Manager) Launch(ctx context.Context, plan *Plan) (*Result, error) {
	if err := m.transition(StateLaunching); err != nil {
		return nil, err
	}

	launchID := logging.GetLaunchID(ctx)
	if launchID == "" {
		launchID = uuid.NewString()
	}
	res := &Result{
		LaunchID:  launchID,
		StartedAt: m.now(),
	}
	logger := m.logger.With("launch_id", res.LaunchID)
	logger.Info("launching fleet",
		"instances", len(plan.Instances),
		"pid_file", plan.PIDFile.Path,
	)

	err := m.run(ctx, plan, res, logger)
	res.Duration = m.now().Sub(res.StartedAt)
	if err != nil {
		res.Err = err
		res.Status = StatusAborted
	} else {
		res.Status = summarize(res.Spawned)
	}
	m.recorder.RecordLaunch(res.Status, len(plan.Instances), res.Duration)

	if err != nil {
		logger.Error("launch procedure failed", "error", err)
		_ = m.transition(StateLaunchFailed)
		return res, err
	}

	logger.Info("fleet launched",
		"status", string(res.Status),
		"spawned", len(res.PIDs()),
		"failed", len(res.Failed()),
		"duration_ms", res.Duration.Milliseconds(),
	)
	_ = m.transition(StateLaunched)
	return res, nil
}

func (m *Manager) run(ctx context.Context, plan *Plan, res *Result, logger *slog.Logger) error {
	terminated, err := m.terminateTracked(plan.PIDFile, logger)
	res.Terminated = terminated
	if err != nil {
		return &LaunchError{Step: "terminate", Err: err}
	}

	for _, spec := range plan.Steps() {
		if err := ctx.Err(); err != nil {
			return &LaunchError{Step: "spawn", Err: err}
		}
		res.Spawned = append(res.Spawned, m.spawn(ctx, plan.PIDFile, spec, logger))
	}
	return nil
}

func (m *Manager) spawn(ctx context.Context, pidFile PIDFile, spec SpawnSpec, logger *slog.Logger) SpawnResult {
	r := SpawnResult{
		Role:    spec.Role,
		Index:   spec.Index,
		Binary:  spec.Binary,
		Args:    spec.Args,
		Dir:     spec.Dir,
		LogPath: spec.LogPath,
	}

	pid, err := m.spawner.Spawn(ctx, spec)
	if err != nil {
		r.Err = fmt.Errorf("spawn %s %d: %w", spec.Role, spec.Index, err)
		logger.Error("spawn failed", "role", string(spec.Role), "index", spec.Index, "error", err)
		m.recorder.RecordSpawn(spec.Role, false)
		return r
	}
	r.PID = pid

	if err := pidFile.Append(pid); err != nil {
		r.Err = fmt.Errorf("track %s %d (pid %d): %w", spec.Role, spec.Index, pid, err)
		logger.Error("failed to track pid", "role", string(spec.Role), "pid", pid, "error", err)
		m.recorder.RecordSpawn(spec.Role, false)
		return r
	}

	logger.Info("process spawned",
		"role", string(spec.Role),
		"index", spec.Index,
		"pid", pid,
		"binary", spec.Binary,
		"log", spec.LogPath,
	)
	m.recorder.RecordSpawn(spec.Role, true)
	return r
}

// terminateTracked signals every pid in the pid file and removes the file.
// Signal failures are captured per pid; only pid file errors are returned.
func (m *Manager) terminateTracked(pidFile PIDFile, logger *slog.Logger) ([]TerminateResult, error) {
	pids, invalid, err := pidFile.Read()
	if err != nil {
		return nil, err
	}
	if len(invalid) > 0 {
		logger.Warn("ignoring malformed pid file entries", "entries", invalid)
	}

	results := make([]TerminateResult, 0, len(pids))
	for _, pid := range pids {
		r := TerminateResult{PID: pid}
		if err := m.terminator.Terminate(pid); err != nil {
			if errors.Is(err, ErrProcessGone) {
				r.Gone = true
			} else {
				r.Err = fmt.Errorf("terminate pid %d: %w", pid, err)
				logger.Warn("failed to terminate previous process", "pid", pid, "error", err)
			}
		}
		m.recorder.RecordTermination(r.Outcome())
		results = append(results, r)
	}

	if err := pidFile.Remove(); err != nil {
		return results, err
	}
	if len(pids) > 0 {
		logger.Info("previous fleet terminated", "pids", len(pids))
	}
	return results, nil
}

// Stop terminates the fleet recorded in pidFile and removes the file
// without changing the lifecycle state.
func (m *Manager) Stop(ctx context.Context, pidFile PIDFile) ([]TerminateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.terminateTracked(pidFile, m.logger)
}
