package guestburn

// State represents the lifecycle state of a Guestburn instance.
type State int

const (
	// StateStopped means the session is not running.
	StateStopped State = iota

	// StateStarting means Start() was called and setup is in progress.
	StateStarting

	// StateRunning means the stress loop is active.
	StateRunning

	// StateStopping means Stop() was called and shutdown is in progress.
	StateStopping

	// StateCrashed means the session terminated with an error.
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// CanStart reports whether Start() may be called from this state.
func (s State) CanStart() bool {
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether Stop() may be called from this state.
func (s State) CanStop() bool {
	return s == StateStarting || s == StateRunning
}

// IsRunning reports whether the session is actively driving traffic.
func (s State) IsRunning() bool {
	return s == StateRunning
}
