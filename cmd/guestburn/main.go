package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/stress-labs/guestburn/internal/cliconfig"
	"github.com/stress-labs/guestburn/pkg/guestburn"
	"github.com/stress-labs/guestburn/pkg/log"
)

const helpDescription = `
Stress a KVM guest's network path and power-cycle it out of hangs.

Guestburn fans out concurrent wget workers that upload a payload to the
guest and download the response in a loop. A parallel ICMP probe and a
no-progress timer watch every iteration; when the network stalls, the
guest is shut down and restarted through virsh and the loop resumes once
its HTTP service answers again. Runs until interrupted.

The guest must serve the target URL over HTTP and accept POST bodies on
it. A static file works:

  guest$ truncate -s 100M /var/www/data.txt

Power control shells out to virsh, so the host needs libvirt access to
the guest domain.
`

var exampleUsage = strings.TrimSpace(`
  guestburn http://myguest.local/data.txt myguest
  guestburn http://myguest.local/data.txt myguest --limit-rate 500k --proc-count 4
  guestburn --config $HOME/.guestburn/config.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "guestburn [url] [guest]",
		Short:   "Stress a KVM guest's network path and power-cycle it out of hangs",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Build set of changed flags; positionals count as explicit too.
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if len(args) > 0 {
				cfg.URL = args[0]
				changed["url"] = true
			}
			if len(args) > 1 {
				cfg.Guest = args[1]
				changed["guest"] = true
			}

			// Load config file first (default $HOME/.guestburn/config.toml),
			// then env vars, with explicit flags winning over both.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}
			haveCfgFile := cfgFile != "" && cliconfig.FileExists(cfgFile)

			if haveCfgFile {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer closeLog()

			logger.Info("configuration",
				log.String("url", cfg.URL),
				log.String("guest", cfg.Guest),
				log.Int("proc_count", cfg.ProcCount),
				log.String("post_size", cfg.PostSize),
				log.String("rate_limit", cfg.RateLimit),
				log.Duration("no_progress_timeout", cfg.NoProgressTimeout),
				log.Duration("poll", cfg.PollInterval),
			)

			libCfg := guestburn.Config{
				URL:                  cfg.URL,
				Guest:                cfg.Guest,
				Workers:              cfg.ProcCount,
				PayloadBytes:         cfg.PostSizeBytes,
				RateLimit:            cfg.RateLimit,
				ScratchDir:           cfg.ScratchDir,
				PollInterval:         cfg.PollInterval,
				NoProgressTimeout:    cfg.NoProgressTimeout,
				ShutdownPollInterval: cfg.ShutdownPollInterval,
				SettleDelay:          cfg.SettleDelay,
				ReadyRetryInterval:   cfg.ReadyRetryInterval,
				ReadyTimeout:         cfg.ReadyTimeout,
				MaxRecoveryRetries:   cfg.MaxRecoveryRetries,
			}

			opts := []guestburn.Option{
				guestburn.WithLogger(logger),
			}
			if haveCfgFile {
				opts = append(opts, guestburn.WithConfigWatcher(cfgFile))
			}

			g, err := guestburn.New(libCfg, opts...)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := g.Start(ctx); err != nil {
				return fmt.Errorf("start session: %w", err)
			}

			// Detect the session ending on its own (a crash; the loop has
			// no clean exit of its own).
			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := g.Status()
						if status == guestburn.StateStopped || status == guestburn.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			crashed := false
			select {
			case <-sigCh:
				logger.Info("received signal, stopping...")
			case <-doneCh:
				if g.Status() == guestburn.StateCrashed {
					crashed = true
					logger.Error("session crashed")
				}
			}

			stats := g.Stats()
			logger.Info("session summary",
				log.Int("iterations", stats.Seq),
				log.Int("completed", stats.Completed),
				log.Int("hanged", stats.Hung),
				log.String("down", humanize.Bytes(uint64(stats.BytesDown))),
				log.String("up", humanize.Bytes(uint64(stats.BytesUp))),
			)

			if g.Status().CanStop() {
				if stopErr := g.Stop(); stopErr != nil {
					return fmt.Errorf("stop session: %w", stopErr)
				}
			}
			if crashed {
				return fmt.Errorf("session crashed")
			}
			return nil
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.guestburn/config.toml)")

	root.Flags().StringVar(&cfg.RateLimit, "limit-rate", cfg.RateLimit, "per-worker rate limit in wget syntax (e.g. 500k)")
	root.Flags().StringVar(&cfg.PostSize, "post-size", cfg.PostSize, "upload payload size (e.g. 100M)")
	root.Flags().IntVar(&cfg.ProcCount, "proc-count", cfg.ProcCount, "number of concurrent transfer workers")

	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "progress/liveness sampling interval")
	root.Flags().DurationVar(&cfg.NoProgressTimeout, "timeout", cfg.NoProgressTimeout, "flat-progress duration that declares a hang")

	root.Flags().DurationVar(&cfg.ShutdownPollInterval, "shutdown-poll", cfg.ShutdownPollInterval, "power-state polling interval during recovery")
	root.Flags().DurationVar(&cfg.SettleDelay, "settle-delay", cfg.SettleDelay, "pause between confirmed power-off and guest start")
	root.Flags().DurationVar(&cfg.ReadyRetryInterval, "ready-retry", cfg.ReadyRetryInterval, "pause between service readiness attempts")
	root.Flags().DurationVar(&cfg.ReadyTimeout, "ready-timeout", cfg.ReadyTimeout, "timeout of a single readiness attempt")
	root.Flags().IntVar(&cfg.MaxRecoveryRetries, "max-recovery-retries", cfg.MaxRecoveryRetries, "cap on each recovery wait phase (0 = wait forever)")

	root.Flags().StringVar(&cfg.ScratchDir, "scratch-dir", cfg.ScratchDir, "directory for worker sinks and the payload (default: system temp)")
	root.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also append JSON logs to this file")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "guestburn: %v\n", err)
		os.Exit(1)
	}
}
