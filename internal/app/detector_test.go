package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stress-labs/guestburn/internal/domain"
)

var testDetectorConfig = DetectorConfig{
	NoProgressTimeout: 3 * time.Second,
	PollInterval:      500 * time.Millisecond,
}

func TestWatch_SteadyProgressCompletes(t *testing.T) {
	clk := newFakeClock()
	start := clk.Now()

	// Four workers, 1000 bytes each every 200ms; batch finishes after 2s.
	batch := &fakeBatch{
		runningFn: func() bool {
			return clk.elapsed(start) < 2*time.Second
		},
		progressFn: func() int64 {
			steps := int64(clk.elapsed(start) / (200 * time.Millisecond))
			return 4 * 1000 * steps
		},
		result: domain.BatchResult{Success: true, BytesDown: 40000, BytesUp: 400000},
	}

	d := NewStallDetector(clk, mockLogger{})
	verdict, err := d.Watch(context.Background(), testDetectorConfig, batch, alwaysAlive(), domain.SessionStats{Seq: 1, Start: start, LastHang: start})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if verdict.Kind != domain.VerdictCompleted {
		t.Fatalf("verdict = %v, want Completed", verdict.Kind)
	}
	if verdict.Result.BytesDown != 40000 || verdict.Result.BytesUp != 400000 {
		t.Errorf("result = %+v, want down=40000 up=400000", verdict.Result)
	}
}

func TestWatch_NoProgressTimeout(t *testing.T) {
	clk := newFakeClock()
	start := clk.Now()

	// Progress frozen at 50000 bytes while the batch keeps running.
	batch := &fakeBatch{
		runningFn:  func() bool { return true },
		progressFn: func() int64 { return 50000 },
	}

	d := NewStallDetector(clk, mockLogger{})
	verdict, err := d.Watch(context.Background(), testDetectorConfig, batch, alwaysAlive(), domain.SessionStats{Seq: 1, Start: start, LastHang: start})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if verdict.Kind != domain.VerdictHung {
		t.Fatalf("verdict = %v, want Hung", verdict.Kind)
	}
	if verdict.Reason != domain.ReasonNoProgress {
		t.Errorf("reason = %v, want no-progress", verdict.Reason)
	}

	// Hang must be declared at the first poll past the 3s mark.
	if got := clk.elapsed(start); got != 3500*time.Millisecond {
		t.Errorf("hang declared after %v, want 3.5s", got)
	}
}

func TestWatch_ProbeFailureWinsOverProgress(t *testing.T) {
	clk := newFakeClock()
	start := clk.Now()

	// Progress keeps increasing the whole time.
	batch := &fakeBatch{
		runningFn: func() bool { return true },
		progressFn: func() int64 {
			return int64(clk.elapsed(start) / time.Millisecond)
		},
	}

	// Probe turns unreachable after 1s.
	live := &fakeLiveness{sampleFn: func() (domain.LivenessSample, bool) {
		if clk.elapsed(start) >= time.Second {
			return domain.LivenessSample{OK: false, Line: "Request timeout for icmp_seq 12"}, true
		}
		return domain.LivenessSample{OK: true, Line: "64 bytes from guest.local"}, true
	}}

	d := NewStallDetector(clk, mockLogger{})
	verdict, err := d.Watch(context.Background(), testDetectorConfig, batch, live, domain.SessionStats{Seq: 1, Start: start, LastHang: start})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if verdict.Kind != domain.VerdictHung || verdict.Reason != domain.ReasonProbeFailure {
		t.Fatalf("verdict = %v/%v, want Hung/probe-failure", verdict.Kind, verdict.Reason)
	}

	// Declared on the very next poll after the probe failed.
	if got := clk.elapsed(start); got != time.Second {
		t.Errorf("hang declared after %v, want 1s", got)
	}
}

func TestWatch_NoSamplesYetIsNotFailure(t *testing.T) {
	clk := newFakeClock()
	start := clk.Now()

	done := false
	batch := &fakeBatch{
		runningFn:  func() bool { return !done },
		progressFn: func() int64 { return int64(clk.elapsed(start) / time.Millisecond) },
		result:     domain.BatchResult{Success: true},
	}
	// Probe never produced output.
	live := &fakeLiveness{}

	clk.onSleep = func(c *fakeClock, d time.Duration) {
		if c.elapsed(start) >= time.Second {
			done = true
		}
	}

	d := NewStallDetector(clk, mockLogger{})
	verdict, err := d.Watch(context.Background(), testDetectorConfig, batch, live, domain.SessionStats{Start: start, LastHang: start})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if verdict.Kind != domain.VerdictCompleted {
		t.Errorf("verdict = %v, want Completed", verdict.Kind)
	}
}

func TestWatch_ProtocolViolationIsFatal(t *testing.T) {
	clk := newFakeClock()
	batch := &fakeBatch{
		runningFn: func() bool { return false },
		resultErr: fmt.Errorf("returncode 0 without save marker: %w", domain.ErrProtocolViolation),
	}

	d := NewStallDetector(clk, mockLogger{})
	_, err := d.Watch(context.Background(), testDetectorConfig, batch, alwaysAlive(), domain.SessionStats{})
	if !errors.Is(err, domain.ErrProtocolViolation) {
		t.Fatalf("Watch() error = %v, want ErrProtocolViolation", err)
	}
}

func TestWatch_CancellationStopsPolling(t *testing.T) {
	clk := newFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	clk.onSleep = func(c *fakeClock, d time.Duration) { cancel() }

	batch := &fakeBatch{
		runningFn:  func() bool { return true },
		progressFn: func() int64 { return 1 },
	}

	d := NewStallDetector(clk, mockLogger{})
	_, err := d.Watch(ctx, testDetectorConfig, batch, alwaysAlive(), domain.SessionStats{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Watch() error = %v, want context.Canceled", err)
	}
}
