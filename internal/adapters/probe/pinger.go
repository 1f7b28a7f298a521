// Package probe implements the session-long ICMP liveness probe.
//
// One check runs per interval; each check appends a ping-style line to the
// liveness sink and retains it in memory as the latest sample for the stall
// detector. The probe outlives every batch iteration and is stopped only at
// session shutdown.
package probe

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/stress-labs/guestburn/internal/domain"
	"github.com/stress-labs/guestburn/internal/ports"
)

// Defaults mirror a plain `ping -s 56 <host>`.
const (
	DefaultInterval    = time.Second
	DefaultTimeout     = time.Second
	DefaultPayloadSize = 56
)

// Pinger is the liveness probe. It implements ports.LivenessLog.
type Pinger struct {
	address  string
	interval time.Duration
	timeout  time.Duration
	size     int
	logger   ports.Logger

	sink *os.File

	mu     sync.Mutex
	seq    int
	latest *domain.LivenessSample

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPinger creates a probe for the address, appending samples to the sink
// file at sinkPath.
func NewPinger(address, sinkPath string, logger ports.Logger) (*Pinger, error) {
	sink, err := os.OpenFile(sinkPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open liveness sink: %w", err)
	}
	return &Pinger{
		address:  address,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		size:     DefaultPayloadSize,
		logger:   logger,
		sink:     sink,
	}, nil
}

// Start launches the probe loop in the background.
func (p *Pinger) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx)
}

// Stop terminates the probe loop and closes the sink. Safe to call once
// after Start.
func (p *Pinger) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	_ = p.sink.Close()
}

// Latest returns the most recent sample, or false before the first check.
func (p *Pinger) Latest() (domain.LivenessSample, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return domain.LivenessSample{}, false
	}
	return *p.latest, true
}

func (p *Pinger) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// check sends a single echo request and records the outcome.
func (p *Pinger) check(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	pinger, err := probing.NewPinger(p.address)
	if err != nil {
		p.record(domain.LivenessSample{OK: false, Line: fmt.Sprintf("ping: %v", err)})
		return
	}
	pinger.Count = 1
	pinger.Size = p.size
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(false)

	err = pinger.RunWithContext(ctx)
	stats := pinger.Statistics()

	if err == nil && stats.PacketsRecv > 0 {
		// 8 bytes of ICMP header on top of the payload, like ping prints.
		p.record(domain.LivenessSample{
			OK: true,
			Line: fmt.Sprintf("%d bytes from %s: icmp_seq=%d time=%.3f ms",
				p.size+8, p.address, seq, float64(stats.AvgRtt.Microseconds())/1000),
		})
		return
	}

	p.record(domain.LivenessSample{
		OK:   false,
		Line: fmt.Sprintf("Request timeout for icmp_seq %d", seq),
	})
}

func (p *Pinger) record(sample domain.LivenessSample) {
	p.mu.Lock()
	p.latest = &sample
	p.mu.Unlock()

	if _, err := fmt.Fprintln(p.sink, sample.Line); err != nil {
		p.logger.Warn("liveness sink write failed", ports.Err(err))
	}
}

var _ ports.LivenessLog = (*Pinger)(nil)
