package exec

import (
	"bytes"
	"context"
	"fmt"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/stress-labs/guestburn/internal/ports"
)

// WgetProbe implements ports.ReadinessProbe with a short-timeout wget
// fetch. Success requires a zero exit status and the save marker in the
// output; a merely accepted connection is not enough.
type WgetProbe struct {
	WgetPath string
	Timeout  time.Duration
}

// NewWgetProbe creates a probe with the given per-attempt timeout.
func NewWgetProbe(timeout time.Duration) *WgetProbe {
	return &WgetProbe{WgetPath: defaultWgetPath, Timeout: timeout}
}

// Check performs one fetch attempt against the URL.
func (p *WgetProbe) Check(ctx context.Context, url string) (bool, string) {
	seconds := int(p.Timeout.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	cmd := osexec.CommandContext(ctx, p.WgetPath,
		"-O", "/dev/null",
		fmt.Sprintf("--timeout=%d", seconds),
		url,
	)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	detail := lastOutputLine(output.String())
	if err != nil {
		return false, fmt.Sprintf("wget failed: %v output: %s", err, detail)
	}
	return strings.Contains(output.String(), saveMarker), detail
}

// lastOutputLine returns the last non-empty line of s.
func lastOutputLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

var _ ports.ReadinessProbe = (*WgetProbe)(nil)
