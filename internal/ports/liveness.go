package ports

import "github.com/stress-labs/guestburn/internal/domain"

// LivenessLog exposes the newest sample from the session-long liveness
// probe. The probe itself outlives every batch iteration; a failed sample
// is an input to stall classification, not an error.
type LivenessLog interface {
	// Latest returns the most recent sample, or false if the probe has
	// not produced any output yet.
	Latest() (domain.LivenessSample, bool)
}
