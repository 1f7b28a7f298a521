package exec

import (
	"context"
	"fmt"
	osexec "os/exec"
	"strings"

	"github.com/stress-labs/guestburn/internal/ports"
)

// StateUnknown is returned when the guest does not appear in the domain
// listing. It is never equal to the confirmed-off state, so recovery keeps
// polling.
const StateUnknown = "COULD NOT DETECT STATE"

// VirshControl implements ports.PowerControl by shelling out to virsh.
type VirshControl struct {
	VirshPath string
	logger    ports.Logger
}

// NewVirshControl creates a power control using virsh from PATH.
func NewVirshControl(logger ports.Logger) *VirshControl {
	return &VirshControl{VirshPath: "virsh", logger: logger}
}

// QueryState lists all domains and returns the state column for the guest.
func (v *VirshControl) QueryState(ctx context.Context, guest string) (string, error) {
	out, err := osexec.CommandContext(ctx, v.VirshPath, "list", "--all").Output()
	if err != nil {
		return "", fmt.Errorf("virsh list: %w", err)
	}
	return parseDomainList(out, guest), nil
}

// Shutdown requests a guest shutdown. Fire-and-forget: the effect is
// observed via QueryState.
func (v *VirshControl) Shutdown(ctx context.Context, guest string) error {
	if err := osexec.CommandContext(ctx, v.VirshPath, "shutdown", guest).Run(); err != nil {
		return fmt.Errorf("virsh shutdown %s: %w", guest, err)
	}
	return nil
}

// Start requests a guest start.
func (v *VirshControl) Start(ctx context.Context, guest string) error {
	if err := osexec.CommandContext(ctx, v.VirshPath, "start", guest).Run(); err != nil {
		return fmt.Errorf("virsh start %s: %w", guest, err)
	}
	return nil
}

// parseDomainList extracts the guest's state from `virsh list --all` output.
// The listing has a two-line header; each row is "id name state", where the
// state may contain spaces ("shut off").
func parseDomainList(out []byte, guest string) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) <= 2 {
		return StateUnknown
	}
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[1] == guest {
			return strings.Join(fields[2:], " ")
		}
	}
	return StateUnknown
}

var _ ports.PowerControl = (*VirshControl)(nil)
