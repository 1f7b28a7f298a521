package guestburn

import (
	"github.com/stress-labs/guestburn/internal/ports"
	"github.com/stress-labs/guestburn/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// Option configures optional behavior of Guestburn.
type Option func(*options)

// options holds the optional configuration for a Guestburn instance.
type options struct {
	logger       ports.Logger
	eventHandler EventHandler
	power        ports.PowerControl
	launcher     ports.BatchLauncher
	readiness    ports.ReadinessProbe
	liveness     ports.LivenessLog
	clock        ports.Clock
	watchPath    string
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for session events.
// Events are called synchronously from the session goroutine.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPowerControl replaces the virsh-based power control.
// Useful for guests managed by something other than libvirt, and for tests.
func WithPowerControl(power ports.PowerControl) Option {
	return func(o *options) {
		o.power = power
	}
}

// WithBatchLauncher replaces the wget/xargs transfer batch launcher.
func WithBatchLauncher(launcher ports.BatchLauncher) Option {
	return func(o *options) {
		o.launcher = launcher
	}
}

// WithReadinessProbe replaces the wget-based service readiness probe used
// during recovery.
func WithReadinessProbe(probe ports.ReadinessProbe) Option {
	return func(o *options) {
		o.readiness = probe
	}
}

// WithLivenessLog replaces the built-in ICMP prober as the liveness
// signal. The caller owns the replacement's lifecycle.
func WithLivenessLog(live ports.LivenessLog) Option {
	return func(o *options) {
		o.liveness = live
	}
}

// WithClock replaces the wall clock. Only useful in tests.
func WithClock(clock ports.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithConfigWatcher watches the given TOML config file and applies timing
// and rate-limit changes at the next iteration boundary. Worker count and
// payload size are fixed for the session and are not reloaded.
func WithConfigWatcher(path string) Option {
	return func(o *options) {
		o.watchPath = path
	}
}
