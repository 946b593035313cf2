package fleet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Role tells instance processes from the load balancer.
type Role string

const (
	RoleInstance Role = "instance"
	RoleBalancer Role = "balancer"
)

// ErrProcessGone is returned by a Terminator when the pid no longer exists.
var ErrProcessGone = errors.New("process already exited")

// SpawnSpec describes one process to start.
type SpawnSpec struct {
	Role    Role
	Index   int
	Binary  string
	Args    []string
	Dir     string
	LogPath string
}

// Spawner starts a detached process and returns its pid.
type Spawner interface {
	Spawn(ctx context.Context, spec SpawnSpec) (int, error)
}

// Terminator asks a process to exit.
type Terminator interface {
	Terminate(pid int) error
}

// ExecSpawner starts processes with os/exec. Children are placed in their
// own process group so they outlive the launcher and ignore its signals.
type ExecSpawner struct{}

// Spawn implements Spawner. Stdout and stderr go to spec.LogPath, which is
// truncated first; without a LogPath output is discarded.
func (ExecSpawner) Spawn(ctx context.Context, spec SpawnSpec) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := exec.LookPath(spec.Binary)
	if err != nil {
		return 0, fmt.Errorf("failed to find %s: %w", spec.Binary, err)
	}

	out := os.DevNull
	if spec.LogPath != "" {
		out = spec.LogPath
	}
	logFile, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = os.Environ()
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = detachedProcAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", spec.Binary, err)
	}

	// Reap the child if it exits while the launcher is still running.
	go func() { _ = cmd.Wait() }()

	return cmd.Process.Pid, nil
}

// SignalTerminator sends SIGTERM (or the platform equivalent).
type SignalTerminator struct{}

// Terminate implements Terminator.
func (SignalTerminator) Terminate(pid int) error {
	return terminate(pid)
}
