package ports

import "github.com/stress-labs/guestburn/pkg/log"

// Logger is the structured logging abstraction used throughout the core.
// It aliases the public pkg/log interface so internal packages do not need
// a second logging vocabulary.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for convenience.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
