package ports

// ProcessHandle is an opaque capability over one external process.
// Any invocation mechanism (native spawn, containerized exec) satisfies it;
// the core never depends on how the process was started.
type ProcessHandle interface {
	// Running reports whether the process has not yet exited.
	Running() bool

	// Kill force-terminates the process and everything it spawned.
	// Best effort: it does not wait for OS-level reaping. Calling Kill
	// on an already-finished process is a no-op.
	Kill() error

	// ExitCode returns the exit code and true once the process has
	// exited. Before that it returns (0, false).
	ExitCode() (int, bool)
}
