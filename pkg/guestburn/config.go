package guestburn

import (
	"fmt"
	"net/url"
	"time"
)

// Default configuration values applied by Config.SetDefaults.
const (
	DefaultWorkers              = 10
	DefaultPayloadBytes         = 100_000_000
	DefaultPollInterval         = 500 * time.Millisecond
	DefaultNoProgressTimeout    = 3 * time.Second
	DefaultShutdownPollInterval = 500 * time.Millisecond
	DefaultSettleDelay          = time.Second
	DefaultReadyRetryInterval   = time.Second
	DefaultReadyTimeout         = time.Second
)

// Config holds the required and optional settings for a Guestburn instance.
// URL and Guest are required; everything else has a default set via
// [Config.SetDefaults].
type Config struct {
	// URL is the HTTP URL served by the guest that the transfer workers
	// fetch. The upload payload is posted to the same URL.
	URL string

	// Guest is the libvirt domain name used for power control.
	Guest string

	// Workers is the number of concurrent transfer workers per iteration.
	Workers int

	// PayloadBytes is the size of the upload payload. The payload file is
	// created sparse in the scratch directory at Start.
	PayloadBytes int64

	// RateLimit is an optional per-worker rate limit in wget syntax
	// (e.g. "500k"). Empty means unlimited.
	RateLimit string

	// ScratchDir is where sinks and the payload live. Empty means the
	// system temp directory.
	ScratchDir string

	// PollInterval is the stall detector's sampling cadence.
	PollInterval time.Duration

	// NoProgressTimeout is how long progress may stay flat before the
	// iteration is declared hung.
	NoProgressTimeout time.Duration

	// ShutdownPollInterval is the power-state polling cadence during
	// recovery.
	ShutdownPollInterval time.Duration

	// SettleDelay is the pause between confirmed power-off and the start
	// command.
	SettleDelay time.Duration

	// ReadyRetryInterval is the pause between service readiness attempts
	// after the guest boots.
	ReadyRetryInterval time.Duration

	// ReadyTimeout bounds a single readiness attempt.
	ReadyTimeout time.Duration

	// MaxRecoveryRetries caps each recovery wait phase. Zero means
	// unlimited: recovery polls until the guest comes back.
	MaxRecoveryRetries int
}

// SetDefaults fills zero-valued optional fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.PayloadBytes == 0 {
		c.PayloadBytes = DefaultPayloadBytes
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.NoProgressTimeout == 0 {
		c.NoProgressTimeout = DefaultNoProgressTimeout
	}
	if c.ShutdownPollInterval == 0 {
		c.ShutdownPollInterval = DefaultShutdownPollInterval
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.ReadyRetryInterval == 0 {
		c.ReadyRetryInterval = DefaultReadyRetryInterval
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = DefaultReadyTimeout
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", c.URL)
	}
	if c.Guest == "" {
		return fmt.Errorf("guest name is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.PayloadBytes <= 0 {
		return fmt.Errorf("payload size must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.NoProgressTimeout < c.PollInterval {
		return fmt.Errorf("no-progress timeout must not be shorter than the poll interval")
	}
	if c.ShutdownPollInterval <= 0 || c.ReadyRetryInterval <= 0 || c.ReadyTimeout <= 0 {
		return fmt.Errorf("recovery intervals must be positive")
	}
	if c.MaxRecoveryRetries < 0 {
		return fmt.Errorf("max recovery retries must not be negative")
	}
	return nil
}
