package guestburn

import (
	"context"
	"errors"
	"sync"
	"time"

	execAdapter "github.com/stress-labs/guestburn/internal/adapters/exec"
	"github.com/stress-labs/guestburn/internal/adapters/fs"
	logAdapter "github.com/stress-labs/guestburn/internal/adapters/log"
	"github.com/stress-labs/guestburn/internal/adapters/probe"
	"github.com/stress-labs/guestburn/internal/app"
	"github.com/stress-labs/guestburn/internal/cliconfig"
	"github.com/stress-labs/guestburn/internal/domain"
	"github.com/stress-labs/guestburn/internal/ports"
)

// Guestburn is a guest network stress session that can be embedded in
// other applications. Use New() to create an instance, then Start() to
// begin driving traffic.
type Guestburn struct {
	config  Config
	opts    options
	target  domain.Target
	logger  ports.Logger
	emitter eventEmitterWrapper

	lifecycle *app.Lifecycle

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	orch    *app.Orchestrator
	scratch *fs.ScratchStore
	prober  *probe.Pinger
}

// Stats is a snapshot of the session counters.
type Stats struct {
	// Seq is the current iteration sequence number.
	Seq int

	// BytesDown and BytesUp are cumulative totals over completed
	// iterations.
	BytesDown int64
	BytesUp   int64

	// Completed and Hung count iteration outcomes.
	Completed int
	Hung      int

	// LastHang is the time of the most recent hang, or the session start
	// if none occurred yet.
	LastHang time.Time

	// Start is the session start time.
	Start time.Time
}

// New creates a new Guestburn instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Guestburn, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	target, err := domain.NewTarget(cfg.URL, cfg.Guest)
	if err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logAdapter.NewNoopLogger()
	}
	if o.clock == nil {
		o.clock = app.SystemClock{}
	}

	g := &Guestburn{
		config: cfg,
		opts:   o,
		target: target,
		logger: o.logger,
	}
	g.emitter = eventEmitterWrapper{handler: o.eventHandler}
	g.lifecycle = app.NewLifecycle(o.logger, &g.emitter)

	return g, nil
}

// Start begins the stress session in the background.
// Returns immediately after the session goroutine is launched.
// Returns an error if already running or if setup fails.
// The provided context bounds the lifetime of the session.
func (g *Guestburn) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	if err := g.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.ctx = runCtx
	g.cancel = cancel
	g.lifecycle.SetCancel(cancel)

	orch, err := g.setUp()
	if err != nil {
		cancel()
		g.teardownLocked()
		_ = g.lifecycle.TransitionTo(app.StateCrashed, "setup failed: "+err.Error())
		return err
	}
	g.orch = orch

	if g.opts.watchPath != "" {
		watcher := newConfigWatcher(g.opts.watchPath, g.logger, g.applyFileConfig)
		g.lifecycle.AddWorker()
		go func() {
			defer g.lifecycle.WorkerDone()
			watcher.Run(runCtx)
		}()
	}

	g.lifecycle.AddWorker()
	go func() {
		defer g.lifecycle.WorkerDone()

		if err := g.lifecycle.TransitionTo(app.StateRunning, "session starting"); err != nil {
			g.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := orch.Run(runCtx)

		if err != nil && !errors.Is(err, context.Canceled) {
			g.logger.Error("session error", ports.Err(err))
			g.teardown()
			_ = g.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// setUp materializes the scratch files and assembles the session loop.
// Called with g.mu held.
func (g *Guestburn) setUp() (*app.Orchestrator, error) {
	g.scratch = fs.NewScratchStore(g.config.ScratchDir)

	payloadPath, err := g.scratch.CreatePayload(g.config.PayloadBytes)
	if err != nil {
		return nil, err
	}

	live := g.opts.liveness
	if live == nil {
		sinkPath, err := g.scratch.CreateFile("ping_output")
		if err != nil {
			return nil, err
		}
		prober, err := probe.NewPinger(g.target.Address, sinkPath, g.logger)
		if err != nil {
			return nil, err
		}
		prober.Start()
		g.prober = prober
		live = prober
	}

	launcher := g.opts.launcher
	if launcher == nil {
		launcher = execAdapter.NewLauncher(g.scratch, g.logger)
	}
	power := g.opts.power
	if power == nil {
		power = execAdapter.NewVirshControl(g.logger)
	}
	ready := g.opts.readiness
	if ready == nil {
		ready = execAdapter.NewWgetProbe(g.config.ReadyTimeout)
	}

	detector := app.NewStallDetector(g.opts.clock, g.logger)
	recovery := app.NewRecoveryController(power, ready, g.opts.clock, g.logger)

	orchCfg := app.OrchestratorConfig{
		Workers:     g.config.Workers,
		PayloadPath: payloadPath,
		Tunables:    tunablesFromConfig(g.config),
	}
	return app.NewOrchestrator(orchCfg, g.target, launcher, live,
		detector, recovery, g.opts.clock, g.logger, &g.emitter), nil
}

// Stop gracefully shuts down the session. Kills any running transfer
// batch, stops the liveness prober, and removes scratch files.
// Waits up to 30 seconds before forcing shutdown.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (g *Guestburn) Stop() error {
	g.mu.Lock()

	if !g.lifecycle.CanStop() {
		g.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := g.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		g.mu.Unlock()
		return err
	}

	if g.cancel != nil {
		g.cancel()
	}

	g.mu.Unlock()

	err := g.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	g.teardown()

	if err != nil {
		_ = g.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = g.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (g *Guestburn) Status() State {
	return convertState(g.lifecycle.State())
}

// Stats returns a snapshot of the session counters.
// Safe to call concurrently from any goroutine.
func (g *Guestburn) Stats() Stats {
	g.mu.Lock()
	orch := g.orch
	g.mu.Unlock()

	if orch == nil {
		return Stats{}
	}
	s := orch.Stats()
	return Stats{
		Seq:       s.Seq,
		BytesDown: s.BytesDown,
		BytesUp:   s.BytesUp,
		Completed: s.Completed,
		Hung:      s.Hung,
		LastHang:  s.LastHang,
		Start:     s.Start,
	}
}

// teardown releases session resources. Idempotent.
func (g *Guestburn) teardown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teardownLocked()
}

func (g *Guestburn) teardownLocked() {
	if g.prober != nil {
		g.prober.Stop()
		g.prober = nil
	}
	if g.scratch != nil {
		if err := g.scratch.RemoveAll(); err != nil {
			g.logger.Warn("scratch cleanup failed", ports.Err(err))
		}
		g.scratch = nil
	}
}

// applyFileConfig folds a reloaded config file into the tunable knobs.
// Invalid values are logged and skipped; worker count and payload size
// are fixed per session and ignored here.
func (g *Guestburn) applyFileConfig(fc cliconfig.FileConfig) {
	g.mu.Lock()

	setDur := func(name, value string, dst *time.Duration) {
		if value == "" {
			return
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			g.logger.Warn("ignoring invalid duration in config file",
				ports.String("field", name), ports.String("value", value))
			return
		}
		*dst = d
	}

	setDur("poll_interval", fc.PollInterval, &g.config.PollInterval)
	setDur("no_progress_timeout", fc.NoProgressTimeout, &g.config.NoProgressTimeout)
	setDur("shutdown_poll_interval", fc.ShutdownPollInterval, &g.config.ShutdownPollInterval)
	setDur("settle_delay", fc.SettleDelay, &g.config.SettleDelay)
	setDur("ready_retry_interval", fc.ReadyRetryInterval, &g.config.ReadyRetryInterval)
	if fc.RateLimit != "" {
		g.config.RateLimit = fc.RateLimit
	}
	if fc.MaxRecoveryRetries > 0 {
		g.config.MaxRecoveryRetries = fc.MaxRecoveryRetries
	}

	tunables := tunablesFromConfig(g.config)
	orch := g.orch
	g.mu.Unlock()

	if orch != nil {
		orch.UpdateTunables(tunables)
	}
}

func tunablesFromConfig(cfg Config) app.Tunables {
	return app.Tunables{
		Detector: app.DetectorConfig{
			NoProgressTimeout: cfg.NoProgressTimeout,
			PollInterval:      cfg.PollInterval,
		},
		Recovery: app.RecoveryConfig{
			ShutdownPollInterval: cfg.ShutdownPollInterval,
			SettleDelay:          cfg.SettleDelay,
			ReadyRetryInterval:   cfg.ReadyRetryInterval,
			MaxRetries:           cfg.MaxRecoveryRetries,
		},
		RateLimit: cfg.RateLimit,
	}
}
