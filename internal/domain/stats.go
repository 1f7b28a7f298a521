package domain

import "time"

// SessionStats aggregates outcomes across iterations. It is mutated only
// by the orchestrator after each iteration's verdict is known; everyone
// else reads snapshots.
type SessionStats struct {
	// Seq is the current iteration sequence number, starting at 1.
	Seq int

	// BytesDown and BytesUp are cumulative transfer totals over all
	// completed iterations.
	BytesDown int64
	BytesUp   int64

	// Completed counts iterations that finished cleanly.
	Completed int

	// Hung counts iterations that ended in a hang verdict.
	Hung int

	// LastHang is the time of the most recent hang. Initialized to the
	// session start so time-since-last-hang is well defined before the
	// first hang.
	LastHang time.Time

	// Start is the session start time.
	Start time.Time
}

// BatchResult is the final outcome of one transfer batch. Valid only after
// the batch has exited and was not force-terminated.
type BatchResult struct {
	Success   bool
	BytesDown int64
	BytesUp   int64
}

// LivenessSample is one entry from the liveness probe's output.
type LivenessSample struct {
	// OK reports whether the sample indicates the target replied.
	OK bool

	// Line is the raw probe output line, kept for logging.
	Line string
}
