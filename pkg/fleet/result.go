package fleet

import (
	"errors"
	"time"
)

// Status summarizes a launch.
type Status string

const (
	// StatusLaunched means every process was spawned.
	StatusLaunched Status = "launched"
	// StatusPartial means some but not all spawns failed.
	StatusPartial Status = "partial"
	// StatusAborted means nothing was spawned.
	StatusAborted Status = "aborted"
)

// TerminateResult is the outcome of signalling one tracked pid.
type TerminateResult struct {
	PID  int   `json:"pid"`
	Gone bool  `json:"gone,omitempty"`
	Err  error `json:"-"`
}

// Outcome returns "terminated", "gone" or "error".
func (r TerminateResult) Outcome() string {
	switch {
	case r.Gone:
		return "gone"
	case r.Err != nil:
		return "error"
	default:
		return "terminated"
	}
}

// SpawnResult is the outcome of one spawn attempt.
type SpawnResult struct {
	Role    Role     `json:"role"`
	Index   int      `json:"index"`
	Binary  string   `json:"binary"`
	Args    []string `json:"args"`
	Dir     string   `json:"dir"`
	LogPath string   `json:"log_path"`
	PID     int      `json:"pid,omitempty"`
	Err     error    `json:"-"`
}

// OK reports whether the process was started and tracked.
func (r SpawnResult) OK() bool {
	return r.Err == nil && r.PID > 0
}

// Result aggregates one launch.
type Result struct {
	LaunchID   string            `json:"launch_id"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	Terminated []TerminateResult `json:"terminated"`
	Spawned    []SpawnResult     `json:"spawned"`
	Status     Status            `json:"status"`
	Err        error             `json:"-"`
}

// PIDs returns the pids of successful spawns in launch order.
func (r *Result) PIDs() []int {
	var pids []int
	for _, s := range r.Spawned {
		if s.PID > 0 {
			pids = append(pids, s.PID)
		}
	}
	return pids
}

// Failed returns the spawn attempts that did not succeed.
func (r *Result) Failed() []SpawnResult {
	var failed []SpawnResult
	for _, s := range r.Spawned {
		if !s.OK() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Error joins every spawn and termination error, or returns nil.
func (r *Result) Error() error {
	var errs []error
	if r.Err != nil {
		errs = append(errs, r.Err)
	}
	for _, t := range r.Terminated {
		if t.Err != nil && !t.Gone {
			errs = append(errs, t.Err)
		}
	}
	for _, s := range r.Spawned {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}

func summarize(spawned []SpawnResult) Status {
	ok := 0
	for _, s := range spawned {
		if s.OK() {
			ok++
		}
	}
	switch {
	case len(spawned) > 0 && ok == len(spawned):
		return StatusLaunched
	case ok == 0:
		return StatusAborted
	default:
		return StatusPartial
	}
}
