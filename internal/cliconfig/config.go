package cliconfig

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds CLI configuration for guestburn.
type Config struct {
	// URL is the fetch URL on the guest; Guest is the libvirt domain name.
	// Both come from positional arguments but may also be set in the
	// config file.
	URL   string
	Guest string

	// RateLimit is the optional per-worker rate limit in wget syntax.
	RateLimit string

	// PostSize is the upload payload size as a human string ("100M").
	// PostSizeBytes is derived during Validate.
	PostSize      string
	PostSizeBytes int64

	// ProcCount is the number of concurrent transfer workers.
	ProcCount int

	PollInterval      time.Duration
	NoProgressTimeout time.Duration

	ShutdownPollInterval time.Duration
	SettleDelay          time.Duration
	ReadyRetryInterval   time.Duration
	ReadyTimeout         time.Duration

	// MaxRecoveryRetries caps each recovery wait phase; 0 retries forever.
	MaxRecoveryRetries int

	ScratchDir string
	LogFile    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		PostSize:             "100M",
		ProcCount:            10,
		PollInterval:         500 * time.Millisecond,
		NoProgressTimeout:    3 * time.Second,
		ShutdownPollInterval: 500 * time.Millisecond,
		SettleDelay:          time.Second,
		ReadyRetryInterval:   time.Second,
		ReadyTimeout:         time.Second,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
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

	size, err := humanize.ParseBytes(c.PostSize)
	if err != nil {
		return fmt.Errorf("parse post-size %q: %w", c.PostSize, err)
	}
	if size == 0 {
		return fmt.Errorf("post-size must be positive")
	}
	c.PostSizeBytes = int64(size)

	if c.ProcCount <= 0 {
		return fmt.Errorf("proc-count must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.NoProgressTimeout <= 0 {
		return fmt.Errorf("no-progress timeout must be positive")
	}
	if c.NoProgressTimeout < c.PollInterval {
		return fmt.Errorf("no-progress timeout must not be shorter than the poll interval")
	}
	if c.ShutdownPollInterval <= 0 || c.ReadyRetryInterval <= 0 || c.ReadyTimeout <= 0 {
		return fmt.Errorf("recovery intervals must be positive")
	}
	if c.MaxRecoveryRetries < 0 {
		return fmt.Errorf("max-recovery-retries must not be negative")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
