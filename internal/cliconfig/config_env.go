package cliconfig

import "os"

// Environment variable names recognized by ApplyEnvConfig.
const (
	EnvURL                  = "GUESTBURN_URL"
	EnvGuest                = "GUESTBURN_GUEST"
	EnvRateLimit            = "GUESTBURN_RATE_LIMIT"
	EnvPostSize             = "GUESTBURN_POST_SIZE"
	EnvProcCount            = "GUESTBURN_PROC_COUNT"
	EnvPollInterval         = "GUESTBURN_POLL_INTERVAL"
	EnvNoProgressTimeout    = "GUESTBURN_NO_PROGRESS_TIMEOUT"
	EnvShutdownPollInterval = "GUESTBURN_SHUTDOWN_POLL_INTERVAL"
	EnvSettleDelay          = "GUESTBURN_SETTLE_DELAY"
	EnvReadyRetryInterval   = "GUESTBURN_READY_RETRY_INTERVAL"
	EnvReadyTimeout         = "GUESTBURN_READY_TIMEOUT"
	EnvMaxRecoveryRetries   = "GUESTBURN_MAX_RECOVERY_RETRIES"
	EnvScratchDir           = "GUESTBURN_SCRATCH_DIR"
	EnvLogFile              = "GUESTBURN_LOG_FILE"
)

// ApplyEnvConfig applies configuration from GUESTBURN_* environment
// variables. Flags that were explicitly set on the command line win.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("url", os.Getenv(EnvURL), &cfg.URL)
	s.setString("guest", os.Getenv(EnvGuest), &cfg.Guest)
	s.setString("limit-rate", os.Getenv(EnvRateLimit), &cfg.RateLimit)
	s.setString("post-size", os.Getenv(EnvPostSize), &cfg.PostSize)
	s.setString("scratch-dir", os.Getenv(EnvScratchDir), &cfg.ScratchDir)
	s.setString("log-file", os.Getenv(EnvLogFile), &cfg.LogFile)

	if err := s.setIntFromString("proc-count", os.Getenv(EnvProcCount), &cfg.ProcCount); err != nil {
		return err
	}
	if err := s.setIntFromString("max-recovery-retries", os.Getenv(EnvMaxRecoveryRetries), &cfg.MaxRecoveryRetries); err != nil {
		return err
	}

	if err := s.setDuration("poll", os.Getenv(EnvPollInterval), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv(EnvNoProgressTimeout), &cfg.NoProgressTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-poll", os.Getenv(EnvShutdownPollInterval), &cfg.ShutdownPollInterval); err != nil {
		return err
	}
	if err := s.setDuration("settle-delay", os.Getenv(EnvSettleDelay), &cfg.SettleDelay); err != nil {
		return err
	}
	if err := s.setDuration("ready-retry", os.Getenv(EnvReadyRetryInterval), &cfg.ReadyRetryInterval); err != nil {
		return err
	}
	if err := s.setDuration("ready-timeout", os.Getenv(EnvReadyTimeout), &cfg.ReadyTimeout); err != nil {
		return err
	}

	return nil
}
