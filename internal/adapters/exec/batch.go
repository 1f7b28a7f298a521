package exec

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/stress-labs/guestburn/internal/domain"
	"github.com/stress-labs/guestburn/internal/ports"
)

// saveMarker is the fragment wget prints on its final output line once the
// response body has been written. Both the batch result check and the
// readiness probe key on it.
const saveMarker = "`/dev/null' saved"

// Default tool locations, overridable for tests.
const (
	defaultWgetPath  = "/usr/bin/wget"
	defaultXargsPath = "/usr/bin/xargs"
)

// Launcher implements ports.BatchLauncher by fanning out wget workers
// through xargs. Worker output sinks are created once per session and
// truncated at each launch, so iteration count does not grow the scratch
// directory.
type Launcher struct {
	scratch ports.ScratchStore
	logger  ports.Logger

	WgetPath  string
	XargsPath string

	mu       sync.Mutex
	sinks    []string
	argsPath string
}

// NewLauncher creates a launcher whose scratch files come from the given store.
func NewLauncher(scratch ports.ScratchStore, logger ports.Logger) *Launcher {
	return &Launcher{
		scratch:   scratch,
		logger:    logger,
		WgetPath:  defaultWgetPath,
		XargsPath: defaultXargsPath,
	}
}

// Launch starts one iteration's batch of opts.Workers wget workers, each
// uploading the payload and downloading the target URL, logging to its own
// sink.
func (l *Launcher) Launch(ctx context.Context, target domain.Target, opts ports.BatchOptions) (ports.BatchHandle, error) {
	sinks, argsPath, err := l.prepareSinks(opts.Workers)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(opts.PayloadPath)
	if err != nil {
		return nil, fmt.Errorf("stat payload: %w", err)
	}

	args := []string{
		"--arg-file=" + argsPath,
		"-n", "1",
		"-P", strconv.Itoa(opts.Workers),
		l.WgetPath, target.URL,
	}
	if opts.RateLimit != "" {
		args = append(args, "--limit-rate="+opts.RateLimit)
	}
	args = append(args, "-O", "/dev/null", "--post-file="+opts.PayloadPath)

	proc, err := StartProcess(osexec.Command(l.XargsPath, args...))
	if err != nil {
		return nil, fmt.Errorf("start batch dispatcher: %w", err)
	}

	l.logger.Debug("batch started",
		ports.Int("workers", opts.Workers),
		ports.String("url", target.URL),
		ports.Int64("payload_bytes", info.Size()),
	)

	return &Batch{
		proc:         proc,
		sinks:        sinks,
		workers:      opts.Workers,
		payloadBytes: info.Size(),
	}, nil
}

// prepareSinks lazily creates the per-worker sinks and the xargs argument
// file, then resets the sinks for the new iteration.
func (l *Launcher) prepareSinks(workers int) ([]string, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for len(l.sinks) < workers {
		path, err := l.scratch.CreateFile(fmt.Sprintf("wget_output_%d", len(l.sinks)))
		if err != nil {
			return nil, "", fmt.Errorf("create worker sink: %w", err)
		}
		l.sinks = append(l.sinks, path)
	}
	sinks := l.sinks[:workers]

	if l.argsPath == "" {
		path, err := l.scratch.CreateFile("args")
		if err != nil {
			return nil, "", fmt.Errorf("create args file: %w", err)
		}
		l.argsPath = path
	}
	if err := os.WriteFile(l.argsPath, []byte(workerArgs(sinks)), 0o644); err != nil {
		return nil, "", fmt.Errorf("write args file: %w", err)
	}

	for _, sink := range sinks {
		if err := os.Truncate(sink, 0); err != nil {
			return nil, "", fmt.Errorf("reset worker sink: %w", err)
		}
	}
	return sinks, l.argsPath, nil
}

// workerArgs renders one --output-file argument per worker for xargs.
func workerArgs(sinks []string) string {
	args := make([]string, len(sinks))
	for i, sink := range sinks {
		args[i] = "--output-file=" + sink
	}
	return strings.Join(args, " ")
}

// Batch is a running (or finished) transfer batch.
type Batch struct {
	proc         *Process
	sinks        []string
	workers      int
	payloadBytes int64

	mu         sync.Mutex
	terminated bool
}

// Running reports whether the dispatcher is still alive.
func (b *Batch) Running() bool {
	return b.proc.Running()
}

// ProgressSize sums the worker sink sizes. Sinks that cannot be statted
// contribute zero; staleness is tolerated by the stall policy.
func (b *Batch) ProgressSize() int64 {
	var total int64
	for _, sink := range b.sinks {
		if info, err := os.Stat(sink); err == nil {
			total += info.Size()
		}
	}
	return total
}

// Terminate kills the dispatcher's process group. Idempotent; a no-op on a
// batch that already finished.
func (b *Batch) Terminate() error {
	b.mu.Lock()
	if b.terminated {
		b.mu.Unlock()
		return nil
	}
	b.terminated = true
	b.mu.Unlock()

	return b.proc.Kill()
}

// Result inspects the exit status and every worker's final output line.
// Exit zero with all save markers present is the only success; any other
// combination breaks the transfer contract.
func (b *Batch) Result() (domain.BatchResult, error) {
	b.mu.Lock()
	terminated := b.terminated
	b.mu.Unlock()
	if terminated {
		return domain.BatchResult{}, domain.ErrBatchTerminated
	}

	code, exited := b.proc.ExitCode()
	if !exited {
		return domain.BatchResult{}, fmt.Errorf("batch result requested while still running")
	}

	lastLines := make([]string, len(b.sinks))
	allSaved := true
	var down int64
	for i, sink := range b.sinks {
		line := lastFileLine(sink)
		lastLines[i] = line
		if !strings.Contains(line, saveMarker) {
			allSaved = false
			continue
		}
		if n, ok := savedBytes(line); ok {
			down += n
		}
	}

	if code != 0 || !allSaved {
		return domain.BatchResult{}, fmt.Errorf(
			"transfer exit status %d, last lines %q: %w",
			code, lastLines, domain.ErrProtocolViolation)
	}

	return domain.BatchResult{
		Success:   true,
		BytesDown: down,
		BytesUp:   b.payloadBytes * int64(b.workers),
	}, nil
}

// lastFileLine returns the last non-empty line of the file, or "".
func lastFileLine(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// savedBytes extracts the byte count from a wget save line, e.g.
// "... - `/dev/null' saved [104857600/104857600]" -> 104857600.
func savedBytes(line string) (int64, bool) {
	slash := strings.LastIndex(line, "/")
	if slash < 0 {
		return 0, false
	}
	rest := line[slash+1:]
	end := strings.Index(rest, "]")
	if end < 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(rest[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

var (
	_ ports.BatchLauncher = (*Launcher)(nil)
	_ ports.BatchHandle   = (*Batch)(nil)
)
