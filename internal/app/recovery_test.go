package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stress-labs/guestburn/internal/domain"
)

var testRecoveryConfig = RecoveryConfig{
	ShutdownPollInterval: 500 * time.Millisecond,
	SettleDelay:          time.Second,
	ReadyRetryInterval:   time.Second,
}

func TestRun_ShutdownWaitsForOffState(t *testing.T) {
	clk := newFakeClock()

	// Scenario: "running" for 3 consecutive polls, then "shut off".
	power := &fakePower{states: []string{"running", "running", "running", "shut off"}}
	ready := &fakeReadiness{}

	r := NewRecoveryController(power, ready, clk, mockLogger{})
	if err := r.Run(context.Background(), testRecoveryConfig, testTarget()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if power.queries != 4 {
		t.Errorf("QueryState calls = %d, want 4 (3 retries then off)", power.queries)
	}
	if power.shutdowns != 1 {
		t.Errorf("Shutdown calls = %d, want 1", power.shutdowns)
	}
	if power.starts != 1 {
		t.Errorf("Start calls = %d, want 1", power.starts)
	}
}

func TestRun_AnyStateOtherThanOffKeepsPolling(t *testing.T) {
	clk := newFakeClock()

	// States that look close to off must not advance the machine.
	power := &fakePower{states: []string{"in shutdown", "paused", "COULD NOT DETECT STATE", "shut off"}}
	ready := &fakeReadiness{}

	r := NewRecoveryController(power, ready, clk, mockLogger{})
	if err := r.Run(context.Background(), testRecoveryConfig, testTarget()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if power.queries != 4 {
		t.Errorf("QueryState calls = %d, want 4", power.queries)
	}
}

func TestRun_ReadinessRequiresMarker(t *testing.T) {
	clk := newFakeClock()
	power := &fakePower{states: []string{"shut off"}}

	// Two failed attempts (timeout / no marker) before success.
	ready := &fakeReadiness{failures: 2}

	r := NewRecoveryController(power, ready, clk, mockLogger{})
	if err := r.Run(context.Background(), testRecoveryConfig, testTarget()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ready.checks != 3 {
		t.Errorf("readiness checks = %d, want 3", ready.checks)
	}
}

func TestRun_ReadinessProbesServiceRoot(t *testing.T) {
	clk := newFakeClock()
	power := &fakePower{states: []string{"shut off"}}

	var probed string
	ready := &urlRecorder{url: &probed}

	r := NewRecoveryController(power, ready, clk, mockLogger{})
	if err := r.Run(context.Background(), testRecoveryConfig, testTarget()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if probed != "http://guest.local/" {
		t.Errorf("probed url = %q, want service root", probed)
	}
}

type urlRecorder struct{ url *string }

func (r *urlRecorder) Check(ctx context.Context, url string) (bool, string) {
	*r.url = url
	return true, "`/dev/null' saved"
}

func TestRun_RetryCeilingEscalates(t *testing.T) {
	clk := newFakeClock()
	power := &fakePower{states: []string{"running"}}
	ready := &fakeReadiness{}

	cfg := testRecoveryConfig
	cfg.MaxRetries = 5

	r := NewRecoveryController(power, ready, clk, mockLogger{})
	err := r.Run(context.Background(), cfg, testTarget())
	if !errors.Is(err, domain.ErrRecoveryStalled) {
		t.Fatalf("Run() error = %v, want ErrRecoveryStalled", err)
	}
	if power.queries != 5 {
		t.Errorf("QueryState calls = %d, want 5", power.queries)
	}
}

func TestRun_CancellationDuringWait(t *testing.T) {
	clk := newFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	clk.onSleep = func(c *fakeClock, d time.Duration) { cancel() }

	power := &fakePower{states: []string{"running"}}
	ready := &fakeReadiness{}

	r := NewRecoveryController(power, ready, clk, mockLogger{})
	err := r.Run(ctx, testRecoveryConfig, testTarget())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
