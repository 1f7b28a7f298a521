package app

import (
	"context"
	"time"

	"github.com/stress-labs/guestburn/internal/domain"
	"github.com/stress-labs/guestburn/internal/ports"
)

// RecoveryPhase is one step of the power-cycle protocol.
type RecoveryPhase int

const (
	PhaseShuttingDown RecoveryPhase = iota
	PhaseConfirmedOff
	PhaseBootingUp
	PhaseWaitingForService
	PhaseReady
)

// String returns a human-readable representation of the phase.
func (p RecoveryPhase) String() string {
	switch p {
	case PhaseShuttingDown:
		return "ShuttingDown"
	case PhaseConfirmedOff:
		return "ConfirmedOff"
	case PhaseBootingUp:
		return "BootingUp"
	case PhaseWaitingForService:
		return "WaitingForService"
	case PhaseReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// RecoveryConfig holds the power-cycle timing knobs.
type RecoveryConfig struct {
	// ShutdownPollInterval is the cadence of power-state polls while
	// waiting for the guest to reach "shut off".
	ShutdownPollInterval time.Duration

	// SettleDelay is the pause between confirmed-off and the start command.
	SettleDelay time.Duration

	// ReadyRetryInterval is the pause between service readiness attempts.
	ReadyRetryInterval time.Duration

	// MaxRetries caps the polls of each wait phase. Zero means unlimited:
	// if the guest never powers off or the service never comes back,
	// recovery polls forever.
	MaxRetries int
}

// RecoveryController executes the power-cycle-and-wait-for-ready protocol
// after a hung verdict: ShuttingDown -> ConfirmedOff -> BootingUp ->
// WaitingForService -> Ready.
//
// Power commands are fire-and-forget; only their observed effect matters.
// A failed command therefore has no error path of its own — it degenerates
// into the wait loop of the phase it was issued in.
type RecoveryController struct {
	power  ports.PowerControl
	ready  ports.ReadinessProbe
	clock  ports.Clock
	logger ports.Logger
}

// NewRecoveryController creates a controller over the given collaborators.
func NewRecoveryController(power ports.PowerControl, ready ports.ReadinessProbe, clock ports.Clock, logger ports.Logger) *RecoveryController {
	return &RecoveryController{power: power, ready: ready, clock: clock, logger: logger}
}

// Run drives the protocol to Ready. Returns an error only on context
// cancellation or, when a retry ceiling is configured, on
// domain.ErrRecoveryStalled.
func (r *RecoveryController) Run(ctx context.Context, cfg RecoveryConfig, target domain.Target) error {
	r.enter(PhaseShuttingDown, target)
	if err := r.power.Shutdown(ctx, target.Guest); err != nil {
		r.logger.Warn("shutdown command failed",
			ports.String("guest", target.Guest), ports.Err(err))
	}

	retries := 0
	for {
		state, err := r.power.QueryState(ctx, target.Guest)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("power state query failed", ports.Err(err))
			state = "unknown"
		}
		if state == ports.PowerStateOff {
			break
		}
		r.logger.Info("waiting for guest shutdown",
			ports.String("guest", target.Guest),
			ports.String("state", state),
		)
		retries++
		if cfg.MaxRetries > 0 && retries >= cfg.MaxRetries {
			return domain.ErrRecoveryStalled
		}
		if err := r.clock.Sleep(ctx, cfg.ShutdownPollInterval); err != nil {
			return err
		}
	}

	r.enter(PhaseConfirmedOff, target)
	if err := r.clock.Sleep(ctx, cfg.SettleDelay); err != nil {
		return err
	}

	r.enter(PhaseBootingUp, target)
	if err := r.power.Start(ctx, target.Guest); err != nil {
		r.logger.Warn("start command failed",
			ports.String("guest", target.Guest), ports.Err(err))
	}

	r.enter(PhaseWaitingForService, target)
	retries = 0
	for {
		ok, detail := r.ready.Check(ctx, target.ServiceRoot())
		if ok {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Info("waiting for webserver",
			ports.String("url", target.ServiceRoot()),
			ports.String("detail", detail),
		)
		retries++
		if cfg.MaxRetries > 0 && retries >= cfg.MaxRetries {
			return domain.ErrRecoveryStalled
		}
		if err := r.clock.Sleep(ctx, cfg.ReadyRetryInterval); err != nil {
			return err
		}
	}

	r.enter(PhaseReady, target)
	return nil
}

func (r *RecoveryController) enter(phase RecoveryPhase, target domain.Target) {
	r.logger.Info("recovery phase",
		ports.String("phase", phase.String()),
		ports.String("guest", target.Guest),
	)
}
