package ports

import (
	"context"

	"github.com/stress-labs/guestburn/internal/domain"
)

// BatchOptions configures one iteration's transfer batch.
type BatchOptions struct {
	// Workers is the number of concurrent transfer workers.
	Workers int

	// RateLimit is an optional per-worker rate limit in the transfer
	// tool's own syntax (e.g. "500k"). Empty means unlimited.
	RateLimit string

	// PayloadPath is the file uploaded by every worker.
	PayloadPath string
}

// BatchLauncher starts one iteration's transfer batch against the target.
// At most one batch is alive at any instant; the caller guarantees the
// previous batch finished or was terminated before launching the next.
type BatchLauncher interface {
	Launch(ctx context.Context, target domain.Target, opts BatchOptions) (BatchHandle, error)
}

// BatchHandle observes and controls a running transfer batch.
type BatchHandle interface {
	// Running reports whether the batch dispatcher is still alive.
	Running() bool

	// ProgressSize returns a monotonic proxy for aggregate progress:
	// the total bytes written to all worker output sinks so far.
	ProgressSize() int64

	// Terminate force-kills the dispatcher and its workers. Idempotent;
	// calling it on a finished batch is a no-op.
	Terminate() error

	// Result returns the batch outcome. Valid only once Running() is
	// false. Returns domain.ErrBatchTerminated after Terminate, and
	// domain.ErrProtocolViolation when the exit status and the workers'
	// save markers disagree.
	Result() (domain.BatchResult, error)
}
