package app

import (
	"context"
	"sync"

	"github.com/stress-labs/guestburn/internal/domain"
	"github.com/stress-labs/guestburn/internal/ports"
)

// Tunables are the knobs a config reload may change between iterations.
type Tunables struct {
	Detector  DetectorConfig
	Recovery  RecoveryConfig
	RateLimit string
}

// OrchestratorConfig configures the session loop.
type OrchestratorConfig struct {
	// Workers is the transfer worker count, fixed for the session.
	Workers int

	// PayloadPath is the upload payload, generated once per session.
	PayloadPath string

	// Tunables may be updated while the session runs; changes apply at
	// the next iteration boundary.
	Tunables Tunables
}

// IterationEmitter receives per-iteration outcomes. Calls are synchronous
// from the session goroutine.
type IterationEmitter interface {
	OnIterationCompleted(seq int, result domain.BatchResult)
	OnHang(seq int, reason domain.HangReason)
}

// Orchestrator owns the iteration sequence and session statistics. Each
// iteration launches one batch, watches it to a verdict, and on a hang
// terminates the batch and runs recovery before looping. Batches and
// recovery runs are strictly sequential; the loop exits only on context
// cancellation or a protocol violation.
type Orchestrator struct {
	target   domain.Target
	launcher ports.BatchLauncher
	live     ports.LivenessLog
	detector *StallDetector
	recovery *RecoveryController
	clock    ports.Clock
	logger   ports.Logger
	emitter  IterationEmitter

	mu       sync.RWMutex
	workers  int
	payload  string
	tunables Tunables
	stats    domain.SessionStats
}

// NewOrchestrator creates a session loop over the given collaborators.
// emitter may be nil.
func NewOrchestrator(
	cfg OrchestratorConfig,
	target domain.Target,
	launcher ports.BatchLauncher,
	live ports.LivenessLog,
	detector *StallDetector,
	recovery *RecoveryController,
	clock ports.Clock,
	logger ports.Logger,
	emitter IterationEmitter,
) *Orchestrator {
	return &Orchestrator{
		target:   target,
		launcher: launcher,
		live:     live,
		detector: detector,
		recovery: recovery,
		clock:    clock,
		logger:   logger,
		emitter:  emitter,
		workers:  cfg.Workers,
		payload:  cfg.PayloadPath,
		tunables: cfg.Tunables,
	}
}

// Stats returns a snapshot of the session statistics.
func (o *Orchestrator) Stats() domain.SessionStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stats
}

// UpdateTunables replaces the tunable knobs. The new values take effect
// when the next iteration starts.
func (o *Orchestrator) UpdateTunables(t Tunables) {
	o.mu.Lock()
	o.tunables = t
	o.mu.Unlock()
	o.logger.Info("tunables updated",
		ports.Duration("no_progress_timeout", t.Detector.NoProgressTimeout),
		ports.Duration("poll", t.Detector.PollInterval),
		ports.String("rate_limit", t.RateLimit),
	)
}

// Run executes the session loop until ctx is canceled or a protocol
// violation surfaces. A batch left running when the loop exits is
// terminated before returning.
func (o *Orchestrator) Run(ctx context.Context) error {
	now := o.clock.Now()
	o.mu.Lock()
	o.stats.Start = now
	o.stats.LastHang = now
	o.mu.Unlock()

	retry := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tunables := o.snapshotTunables()
		seq := o.nextSeq()

		batch, err := o.launcher.Launch(ctx, o.target, ports.BatchOptions{
			Workers:     o.workers,
			RateLimit:   tunables.RateLimit,
			PayloadPath: o.payload,
		})
		if err != nil {
			o.logger.Error("batch launch failed",
				ports.Int("seq", seq), ports.Err(err))
			if err := retry.Sleep(ctx, o.clock); err != nil {
				return err
			}
			continue
		}
		retry.Reset()

		verdict, err := o.detector.Watch(ctx, tunables.Detector, batch, o.live, o.Stats())
		if err != nil {
			// Cancellation mid-poll or a protocol violation. Either way
			// the batch must not outlive the loop.
			if termErr := batch.Terminate(); termErr != nil {
				o.logger.Warn("batch terminate failed", ports.Err(termErr))
			}
			return err
		}

		switch verdict.Kind {
		case domain.VerdictCompleted:
			o.recordCompleted(verdict.Result)
			if o.emitter != nil {
				o.emitter.OnIterationCompleted(seq, verdict.Result)
			}

		case domain.VerdictHung:
			o.recordHang()
			o.logger.Info("killing transfer workers", ports.Int("seq", seq))
			if err := batch.Terminate(); err != nil {
				o.logger.Warn("batch terminate failed", ports.Err(err))
			}
			if o.emitter != nil {
				o.emitter.OnHang(seq, verdict.Reason)
			}
			if err := o.recovery.Run(ctx, tunables.Recovery, o.target); err != nil {
				return err
			}
		}
	}
}

func (o *Orchestrator) snapshotTunables() Tunables {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tunables
}

func (o *Orchestrator) nextSeq() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.Seq++
	return o.stats.Seq
}

func (o *Orchestrator) recordCompleted(result domain.BatchResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.Completed++
	o.stats.BytesDown += result.BytesDown
	o.stats.BytesUp += result.BytesUp
}

func (o *Orchestrator) recordHang() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.Hung++
	o.stats.LastHang = o.clock.Now()
}
