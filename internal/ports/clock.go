package ports

import (
	"context"
	"time"
)

// Clock abstracts time for the polling loops. The orchestration layer
// never calls time.Now or time.Sleep directly, so tests can drive the
// stall policy and recovery waits deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d or until the context is canceled, returning
	// the context error in the latter case. This is the only suspension
	// point in the control loop.
	Sleep(ctx context.Context, d time.Duration) error
}
