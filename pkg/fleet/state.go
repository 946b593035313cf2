package fleet

import "fmt"

// State is a lifecycle state of the Manager.
type State int

const (
	StateIdle State = iota
	StateGenerated
	StateDryRunDone
	StateLaunching
	StateLaunched
	StateLaunchFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerated:
		return "generated"
	case StateDryRunDone:
		return "dry_run_done"
	case StateLaunching:
		return "launching"
	case StateLaunched:
		return "launched"
	case StateLaunchFailed:
		return "launch_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the allowed moves out of each state.
var transitions = map[State][]State{
	StateIdle:      {StateGenerated},
	StateGenerated: {StateDryRunDone, StateLaunching},
	StateLaunching: {StateLaunched, StateLaunchFailed},
	// A watched or scheduled fleet regenerates after each launch.
	StateDryRunDone:   {StateGenerated},
	StateLaunched:     {StateGenerated},
	StateLaunchFailed: {StateGenerated},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError is returned for a move the state machine does not allow.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid fleet transition %s -> %s", e.From, e.To)
}
