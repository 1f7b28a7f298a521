package ports

import "context"

// PowerControl drives the guest's power state. Shutdown and Start are
// fire-and-forget: their effect is observed only through QueryState polls.
type PowerControl interface {
	// QueryState returns the hypervisor's state string for the guest,
	// e.g. "running" or "shut off".
	QueryState(ctx context.Context, guest string) (string, error)

	// Shutdown requests a guest shutdown.
	Shutdown(ctx context.Context, guest string) error

	// Start requests a guest start.
	Start(ctx context.Context, guest string) error
}

// PowerStateOff is the QueryState value that confirms the guest is off.
const PowerStateOff = "shut off"
