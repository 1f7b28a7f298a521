package ports

import "context"

// ReadinessProbe checks whether the target's service endpoint answers a
// real fetch. Success means the attempt exited cleanly and its output
// carried the save-confirmation marker, not merely that a connection was
// accepted.
type ReadinessProbe interface {
	// Check performs one short-timeout fetch. ok is the success verdict;
	// detail is the attempt's output for logging.
	Check(ctx context.Context, url string) (ok bool, detail string)
}
