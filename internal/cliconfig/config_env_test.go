package cliconfig

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"GUESTBURN_URL":                  "http://guest.local/data.txt",
				"GUESTBURN_GUEST":                "env-guest",
				"GUESTBURN_RATE_LIMIT":           "250k",
				"GUESTBURN_PROC_COUNT":           "6",
				"GUESTBURN_POLL_INTERVAL":        "200ms",
				"GUESTBURN_NO_PROGRESS_TIMEOUT":  "10s",
				"GUESTBURN_MAX_RECOVERY_RETRIES": "30",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				URL:                "http://guest.local/data.txt",
				Guest:              "env-guest",
				RateLimit:          "250k",
				ProcCount:          6,
				PollInterval:       200 * time.Millisecond,
				NoProgressTimeout:  10 * time.Second,
				MaxRecoveryRetries: 30,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"GUESTBURN_GUEST":      "env-guest",
				"GUESTBURN_PROC_COUNT": "6",
			},
			changed: map[string]bool{"proc-count": true},
			initial: Config{
				ProcCount: 16,
			},
			expected: Config{
				Guest:     "env-guest",
				ProcCount: 16,
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"GUESTBURN_POLL_INTERVAL": "not-a-duration",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"GUESTBURN_PROC_COUNT": "not-a-number",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr {
				if cfg.URL != tt.expected.URL {
					t.Errorf("URL = %v, want %v", cfg.URL, tt.expected.URL)
				}
				if cfg.Guest != tt.expected.Guest {
					t.Errorf("Guest = %v, want %v", cfg.Guest, tt.expected.Guest)
				}
				if cfg.RateLimit != tt.expected.RateLimit {
					t.Errorf("RateLimit = %v, want %v", cfg.RateLimit, tt.expected.RateLimit)
				}
				if cfg.ProcCount != tt.expected.ProcCount {
					t.Errorf("ProcCount = %v, want %v", cfg.ProcCount, tt.expected.ProcCount)
				}
				if cfg.PollInterval != tt.expected.PollInterval {
					t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, tt.expected.PollInterval)
				}
				if cfg.NoProgressTimeout != tt.expected.NoProgressTimeout {
					t.Errorf("NoProgressTimeout = %v, want %v", cfg.NoProgressTimeout, tt.expected.NoProgressTimeout)
				}
				if cfg.MaxRecoveryRetries != tt.expected.MaxRecoveryRetries {
					t.Errorf("MaxRecoveryRetries = %v, want %v", cfg.MaxRecoveryRetries, tt.expected.MaxRecoveryRetries)
				}
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	fileConf := FileConfig{
		Guest:     "file-guest",
		RateLimit: "100k",
		PostSize:  "10M",
	}

	os.Setenv("GUESTBURN_GUEST", "env-guest")
	os.Setenv("GUESTBURN_RATE_LIMIT", "200k")
	defer func() {
		os.Unsetenv("GUESTBURN_GUEST")
		os.Unsetenv("GUESTBURN_RATE_LIMIT")
	}()

	changed := map[string]bool{
		"limit-rate": true, // set on the command line
	}

	cfg := Config{
		RateLimit: "999k",
	}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.RateLimit != "999k" {
		t.Errorf("RateLimit = %v, want 999k (CLI should win)", cfg.RateLimit)
	}
	if cfg.Guest != "env-guest" {
		t.Errorf("Guest = %v, want env-guest (env should override file)", cfg.Guest)
	}
	if cfg.PostSize != "10M" {
		t.Errorf("PostSize = %v, want 10M (file should set)", cfg.PostSize)
	}
}
