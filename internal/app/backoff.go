package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/stress-labs/guestburn/internal/ports"
)

// Default backoff configuration for transient batch launch failures.
const (
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 10 * time.Second
)

// backoff implements exponential backoff with jitter over an injected clock.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// newBackoff creates a new backoff with the given initial and max durations.
func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Sleep sleeps for the current backoff duration and increases it.
// Returns early with the context error if ctx is canceled.
func (b *backoff) Sleep(ctx context.Context, clock ports.Clock) error {
	// Jitter: ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	sleep := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	return clock.Sleep(ctx, sleep)
}

// Reset resets the backoff to the initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}

// Current returns the current backoff duration.
func (b *backoff) Current() time.Duration {
	return b.current
}
