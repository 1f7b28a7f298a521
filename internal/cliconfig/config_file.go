package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	URL                  string `toml:"url"`
	Guest                string `toml:"guest"`
	RateLimit            string `toml:"rate_limit"`
	PostSize             string `toml:"post_size"`
	ProcCount            int    `toml:"proc_count"`
	PollInterval         string `toml:"poll_interval"`
	NoProgressTimeout    string `toml:"no_progress_timeout"`
	ShutdownPollInterval string `toml:"shutdown_poll_interval"`
	SettleDelay          string `toml:"settle_delay"`
	ReadyRetryInterval   string `toml:"ready_retry_interval"`
	ReadyTimeout         string `toml:"ready_timeout"`
	MaxRecoveryRetries   int    `toml:"max_recovery_retries"`
	ScratchDir           string `toml:"scratch_dir"`
	LogFile              string `toml:"log_file"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.guestburn/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".guestburn", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("url", fc.URL, &cfg.URL)
	s.setString("guest", fc.Guest, &cfg.Guest)
	s.setString("limit-rate", fc.RateLimit, &cfg.RateLimit)
	s.setString("post-size", fc.PostSize, &cfg.PostSize)
	s.setString("scratch-dir", fc.ScratchDir, &cfg.ScratchDir)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	s.setInt("proc-count", fc.ProcCount, &cfg.ProcCount)
	s.setInt("max-recovery-retries", fc.MaxRecoveryRetries, &cfg.MaxRecoveryRetries)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.NoProgressTimeout, &cfg.NoProgressTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-poll", fc.ShutdownPollInterval, &cfg.ShutdownPollInterval); err != nil {
		return err
	}
	if err := s.setDuration("settle-delay", fc.SettleDelay, &cfg.SettleDelay); err != nil {
		return err
	}
	if err := s.setDuration("ready-retry", fc.ReadyRetryInterval, &cfg.ReadyRetryInterval); err != nil {
		return err
	}
	if err := s.setDuration("ready-timeout", fc.ReadyTimeout, &cfg.ReadyTimeout); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
