package app

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/stress-labs/guestburn/internal/domain"
	"github.com/stress-labs/guestburn/internal/ports"
)

// DetectorConfig holds the stall policy knobs. Passed per Watch call so a
// config reload takes effect at the next iteration boundary.
type DetectorConfig struct {
	// NoProgressTimeout declares a hang once the progress size has been
	// flat for longer than this.
	NoProgressTimeout time.Duration

	// PollInterval is the cadence of progress/liveness sampling and the
	// only suspension point of the control loop.
	PollInterval time.Duration
}

// StallDetector watches one running batch and classifies the iteration as
// completed or hung. Two independent signals are checked every poll: the
// external liveness probe and the batch's own progress size. They catch
// different failure modes — total packet loss fails the probe immediately,
// while a TCP-level stall leaves the probe trickling and only the size
// stagnates.
type StallDetector struct {
	clock  ports.Clock
	logger ports.Logger
}

// NewStallDetector creates a detector using the given clock and logger.
func NewStallDetector(clock ports.Clock, logger ports.Logger) *StallDetector {
	return &StallDetector{clock: clock, logger: logger}
}

// Watch polls the batch and the liveness log until the batch finishes or a
// hang is declared. stats is a read-only snapshot used for status lines.
// Returns an error only on context cancellation or a protocol violation
// surfaced by the batch result.
func (d *StallDetector) Watch(
	ctx context.Context,
	cfg DetectorConfig,
	batch ports.BatchHandle,
	live ports.LivenessLog,
	stats domain.SessionStats,
) (domain.Verdict, error) {
	lastChange := d.clock.Now()
	lastSize := int64(0)

	for {
		if !batch.Running() {
			result, err := batch.Result()
			if err != nil {
				return domain.Verdict{}, err
			}
			return domain.CompletedVerdict(result), nil
		}

		if sample, ok := live.Latest(); ok && !sample.OK {
			d.logger.Error("network hang",
				ports.Int("seq", stats.Seq),
				ports.String("reason", domain.ReasonProbeFailure.String()),
				ports.String("probe", sample.Line),
			)
			return domain.HungVerdict(domain.ReasonProbeFailure), nil
		}

		size := batch.ProgressSize()
		now := d.clock.Now()
		if size != lastSize {
			lastSize = size
			lastChange = now
		} else if now.Sub(lastChange) > cfg.NoProgressTimeout {
			d.logger.Error("network hang",
				ports.Int("seq", stats.Seq),
				ports.String("reason", domain.ReasonNoProgress.String()),
				ports.Int64("size", size),
				ports.Duration("stalled", now.Sub(lastChange)),
			)
			return domain.HungVerdict(domain.ReasonNoProgress), nil
		}

		d.status(stats, size, now)

		if err := d.clock.Sleep(ctx, cfg.PollInterval); err != nil {
			return domain.Verdict{}, err
		}
	}
}

// status emits the periodic one-line session report.
func (d *StallDetector) status(stats domain.SessionStats, size int64, now time.Time) {
	d.logger.Info("status",
		ports.Int("seq", stats.Seq),
		ports.Int("hanged", stats.Hung),
		ports.Int("ok", stats.Completed),
		ports.Duration("total", now.Sub(stats.Start).Truncate(time.Second)),
		ports.Duration("last_hang", now.Sub(stats.LastHang).Truncate(time.Second)),
		ports.String("down", humanize.Bytes(uint64(stats.BytesDown))),
		ports.String("up", humanize.Bytes(uint64(stats.BytesUp))),
		ports.Int64("log", size),
	)
}
