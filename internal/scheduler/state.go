package scheduler

import "fmt"

// State is the lifecycle state of a tracked task.
type State string

const (
	Pending   State = "PENDING"
	Running   State = "RUNNING"
	Completed State = "COMPLETED"
	Failed    State = "FAILED"
	Cancelled State = "CANCELLED"
)

// IsTerminal reports whether the state is final.
func (s State) IsTerminal() bool {
	switch s {
	case Completed, Failed, Cancelled:
		return true
	default:
		return false
	}
}

func (s State) String() string { return string(s) }

func isAllowedTransition(from, to State) bool {
	switch from {
	case Pending:
		return to == Running || to == Cancelled
	case Running:
		return to.IsTerminal()
	default:
		return false
	}
}

func transitionError(name string, from, to State) error {
	return fmt.Errorf("disallowed transition for %q: %s -> %s", name, from, to)
}
