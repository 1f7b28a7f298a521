package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stress-labs/guestburn/internal/domain"
	"github.com/stress-labs/guestburn/internal/ports"
)

type fakeLauncher struct {
	mu       sync.Mutex
	batches  []ports.BatchHandle
	errs     []error
	launches int
	lastOpts ports.BatchOptions
}

func (l *fakeLauncher) Launch(ctx context.Context, target domain.Target, opts ports.BatchOptions) (ports.BatchHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.launches
	l.launches++
	l.lastOpts = opts
	if idx < len(l.errs) && l.errs[idx] != nil {
		return nil, l.errs[idx]
	}
	if idx >= len(l.batches) {
		idx = len(l.batches) - 1
	}
	return l.batches[idx], nil
}

type captureEmitter struct {
	mu        sync.Mutex
	cancel    context.CancelFunc
	completed []int
	hangs     []domain.HangReason
	stopAfter int // cancel once this many completions were seen
}

func (e *captureEmitter) OnIterationCompleted(seq int, result domain.BatchResult) {
	e.mu.Lock()
	e.completed = append(e.completed, seq)
	done := len(e.completed) >= e.stopAfter
	e.mu.Unlock()
	if done {
		e.cancel()
	}
}

func (e *captureEmitter) OnHang(seq int, reason domain.HangReason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hangs = append(e.hangs, reason)
}

func newTestOrchestrator(clk *fakeClock, launcher ports.BatchLauncher, live ports.LivenessLog, power ports.PowerControl, ready ports.ReadinessProbe, emitter IterationEmitter) *Orchestrator {
	cfg := OrchestratorConfig{
		Workers:     4,
		PayloadPath: "/tmp/payload",
		Tunables: Tunables{
			Detector: testDetectorConfig,
			Recovery: testRecoveryConfig,
		},
	}
	detector := NewStallDetector(clk, mockLogger{})
	recovery := NewRecoveryController(power, ready, clk, mockLogger{})
	return NewOrchestrator(cfg, testTarget(), launcher, live, detector, recovery, clk, mockLogger{}, emitter)
}

func TestOrchestrator_CompletedIterationUpdatesCounters(t *testing.T) {
	clk := newFakeClock()
	start := clk.Now()

	// Scenario A: four workers progressing steadily, batch done after 2s.
	batch := &fakeBatch{
		runningFn: func() bool { return clk.elapsed(start) < 2*time.Second },
		progressFn: func() int64 {
			return 4 * 1000 * int64(clk.elapsed(start)/(200*time.Millisecond))
		},
		result: domain.BatchResult{Success: true, BytesDown: 40000, BytesUp: 400000},
	}
	launcher := &fakeLauncher{batches: []ports.BatchHandle{batch}}

	ctx, cancel := context.WithCancel(context.Background())
	emitter := &captureEmitter{cancel: cancel, stopAfter: 1}

	power := &fakePower{states: []string{"shut off"}}
	o := newTestOrchestrator(clk, launcher, alwaysAlive(), power, &fakeReadiness{}, emitter)

	err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	stats := o.Stats()
	if stats.Completed != 1 || stats.Hung != 0 {
		t.Errorf("stats = %+v, want 1 completed, 0 hung", stats)
	}
	if stats.BytesDown != 40000 || stats.BytesUp != 400000 {
		t.Errorf("bytes = down:%d up:%d, want 40000/400000", stats.BytesDown, stats.BytesUp)
	}
	if launcher.lastOpts.Workers != 4 {
		t.Errorf("workers = %d, want 4", launcher.lastOpts.Workers)
	}
}

func TestOrchestrator_HangTriggersRecoveryOnce(t *testing.T) {
	clk := newFakeClock()
	start := clk.Now()

	// Scenario B: first batch freezes at 50000 bytes, second completes.
	frozen := &fakeBatch{
		runningFn:  func() bool { return true },
		progressFn: func() int64 { return 50000 },
	}
	good := &fakeBatch{
		result: domain.BatchResult{Success: true, BytesDown: 1000, BytesUp: 2000},
	}
	launcher := &fakeLauncher{batches: []ports.BatchHandle{frozen, good}}

	ctx, cancel := context.WithCancel(context.Background())
	emitter := &captureEmitter{cancel: cancel, stopAfter: 1}

	power := &fakePower{states: []string{"running", "shut off"}}
	ready := &fakeReadiness{}
	o := newTestOrchestrator(clk, launcher, alwaysAlive(), power, ready, emitter)

	err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	stats := o.Stats()
	if stats.Hung != 1 {
		t.Errorf("hung = %d, want 1", stats.Hung)
	}
	if stats.Completed != 1 {
		t.Errorf("completed = %d, want 1", stats.Completed)
	}
	if frozen.terminateCount() != 1 {
		t.Errorf("terminate calls = %d, want 1", frozen.terminateCount())
	}
	if power.shutdowns != 1 || power.starts != 1 {
		t.Errorf("power cycle = %d/%d shutdowns/starts, want 1/1", power.shutdowns, power.starts)
	}
	if len(emitter.hangs) != 1 || emitter.hangs[0] != domain.ReasonNoProgress {
		t.Errorf("hang events = %v, want one no-progress", emitter.hangs)
	}
	if stats.LastHang.Equal(start) {
		t.Error("LastHang was not advanced by the hang")
	}
}

func TestOrchestrator_LaunchFailureRetries(t *testing.T) {
	clk := newFakeClock()

	good := &fakeBatch{result: domain.BatchResult{Success: true, BytesDown: 10, BytesUp: 20}}
	launcher := &fakeLauncher{
		errs:    []error{errors.New("xargs: not found")},
		batches: []ports.BatchHandle{nil, good},
	}

	ctx, cancel := context.WithCancel(context.Background())
	emitter := &captureEmitter{cancel: cancel, stopAfter: 1}

	power := &fakePower{states: []string{"shut off"}}
	o := newTestOrchestrator(clk, launcher, alwaysAlive(), power, &fakeReadiness{}, emitter)

	err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if launcher.launches != 2 {
		t.Errorf("launches = %d, want 2", launcher.launches)
	}
	if stats := o.Stats(); stats.Seq != 2 || stats.Completed != 1 {
		t.Errorf("stats = %+v, want seq 2, completed 1", stats)
	}
}

func TestOrchestrator_ProtocolViolationHaltsSession(t *testing.T) {
	clk := newFakeClock()

	bad := &fakeBatch{
		resultErr: domain.ErrProtocolViolation,
	}
	launcher := &fakeLauncher{batches: []ports.BatchHandle{bad}}

	power := &fakePower{states: []string{"shut off"}}
	o := newTestOrchestrator(clk, launcher, alwaysAlive(), power, &fakeReadiness{}, nil)

	err := o.Run(context.Background())
	if !errors.Is(err, domain.ErrProtocolViolation) {
		t.Fatalf("Run() error = %v, want ErrProtocolViolation", err)
	}
	if bad.terminateCount() != 1 {
		t.Errorf("terminate calls = %d, want 1 (cleanup on exit)", bad.terminateCount())
	}
}

func TestOrchestrator_UpdateTunablesAppliesNextIteration(t *testing.T) {
	clk := newFakeClock()

	good := &fakeBatch{result: domain.BatchResult{Success: true}}
	launcher := &fakeLauncher{batches: []ports.BatchHandle{good}}

	ctx, cancel := context.WithCancel(context.Background())
	emitter := &captureEmitter{cancel: cancel, stopAfter: 2}

	power := &fakePower{states: []string{"shut off"}}
	o := newTestOrchestrator(clk, launcher, alwaysAlive(), power, &fakeReadiness{}, emitter)

	updated := Tunables{
		Detector:  DetectorConfig{NoProgressTimeout: 9 * time.Second, PollInterval: time.Second},
		Recovery:  testRecoveryConfig,
		RateLimit: "500k",
	}
	o.UpdateTunables(updated)

	err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}
	if launcher.lastOpts.RateLimit != "500k" {
		t.Errorf("rate limit = %q, want updated value", launcher.lastOpts.RateLimit)
	}
}
