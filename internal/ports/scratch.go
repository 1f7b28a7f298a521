package ports

// ScratchStore owns the session's transient files: the upload payload,
// per-worker output sinks, and the liveness log. One store per session,
// released by RemoveAll on shutdown regardless of which phase was active.
type ScratchStore interface {
	// CreateFile creates an empty scratch file with the given name hint
	// and returns its path.
	CreateFile(name string) (string, error)

	// CreatePayload creates the upload payload as a sparse file of the
	// given size and returns its path.
	CreatePayload(size int64) (string, error)

	// RemoveAll deletes every file the store created. Safe to call more
	// than once.
	RemoveAll() error
}
