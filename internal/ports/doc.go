// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [BatchLauncher] / [BatchHandle]: Launches and observes one iteration's
//     transfer worker batch
//   - [LivenessLog]: Exposes the latest liveness probe sample
//   - [PowerControl]: Queries and drives the guest's power state
//   - [ReadinessProbe]: Checks whether the guest's service endpoint is back up
//   - [ScratchStore]: Owns the session's transient files
//   - [ProcessHandle]: Opaque handle over an external process
//   - [Clock]: Time source and bounded sleep for deterministic tests
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// mechanisms (os/exec, virsh, ICMP, the file system).
//
// This separation enables:
//   - Testing the stall policy and recovery protocol with fakes
//   - Swapping the transfer tool or hypervisor without touching the core
//   - Clear boundaries and dependency direction
package ports
