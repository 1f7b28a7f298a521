package domain

import "errors"

// Domain errors represent error conditions in the guestburn domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrProtocolViolation is returned when a transfer batch's exit status
	// and its workers' save markers disagree. It indicates the transfer
	// tool broke its contract and is deliberately not retried.
	ErrProtocolViolation = errors.New("guestburn: transfer protocol violation")

	// ErrBatchTerminated is returned when the result of a force-terminated
	// batch is requested. Partial progress from a terminated batch is
	// discarded, never counted.
	ErrBatchTerminated = errors.New("guestburn: batch was terminated")

	// ErrRecoveryStalled is returned when a configured recovery retry
	// ceiling is exhausted. With the default unlimited retries it is
	// never returned.
	ErrRecoveryStalled = errors.New("guestburn: recovery retries exhausted")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("guestburn: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("guestburn: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("guestburn: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("guestburn: invalid configuration")
)
