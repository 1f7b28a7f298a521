package app

import (
	"context"
	"sync"
	"time"

	"github.com/stress-labs/guestburn/internal/domain"
	"github.com/stress-labs/guestburn/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// fakeClock advances its time by the requested duration on every Sleep,
// so polling loops run instantly in tests.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  int
	onSleep func(c *fakeClock, d time.Duration)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps++
	c.mu.Unlock()
	if c.onSleep != nil {
		c.onSleep(c, d)
	}
	return ctx.Err()
}

func (c *fakeClock) elapsed(since time.Time) time.Duration {
	return c.Now().Sub(since)
}

// fakeBatch implements ports.BatchHandle with scriptable behavior.
type fakeBatch struct {
	mu         sync.Mutex
	runningFn  func() bool
	progressFn func() int64
	result     domain.BatchResult
	resultErr  error
	terminated int
}

func (b *fakeBatch) Running() bool {
	if b.runningFn == nil {
		return false
	}
	return b.runningFn()
}

func (b *fakeBatch) ProgressSize() int64 {
	if b.progressFn == nil {
		return 0
	}
	return b.progressFn()
}

func (b *fakeBatch) Terminate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.terminated++
	return nil
}

func (b *fakeBatch) terminateCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminated
}

func (b *fakeBatch) Result() (domain.BatchResult, error) {
	return b.result, b.resultErr
}

// fakeLiveness implements ports.LivenessLog with a scriptable sample.
type fakeLiveness struct {
	sampleFn func() (domain.LivenessSample, bool)
}

func (l *fakeLiveness) Latest() (domain.LivenessSample, bool) {
	if l.sampleFn == nil {
		return domain.LivenessSample{}, false
	}
	return l.sampleFn()
}

func alwaysAlive() *fakeLiveness {
	return &fakeLiveness{sampleFn: func() (domain.LivenessSample, bool) {
		return domain.LivenessSample{OK: true, Line: "64 bytes from target"}, true
	}}
}

// fakePower implements ports.PowerControl, returning scripted states in order
// and repeating the last one.
type fakePower struct {
	mu        sync.Mutex
	states    []string
	queries   int
	shutdowns int
	starts    int
}

func (p *fakePower) QueryState(ctx context.Context, guest string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.queries
	p.queries++
	if idx >= len(p.states) {
		idx = len(p.states) - 1
	}
	return p.states[idx], nil
}

func (p *fakePower) Shutdown(ctx context.Context, guest string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
	return nil
}

func (p *fakePower) Start(ctx context.Context, guest string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts++
	return nil
}

// fakeReadiness implements ports.ReadinessProbe, failing a fixed number of
// attempts before succeeding.
type fakeReadiness struct {
	mu       sync.Mutex
	failures int
	checks   int
}

func (r *fakeReadiness) Check(ctx context.Context, url string) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks++
	if r.checks <= r.failures {
		return false, "wget failed returncode: 4"
	}
	return true, "`/dev/null' saved [612/612]"
}

func testTarget() domain.Target {
	t, err := domain.NewTarget("http://guest.local/data.txt", "guest1")
	if err != nil {
		panic(err)
	}
	return t
}
