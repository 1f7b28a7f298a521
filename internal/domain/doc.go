// Package domain contains the core types of the guestburn stress test:
// the target under test, session statistics, iteration verdicts, and the
// sentinel errors shared across layers.
//
// Types in this package carry no behavior beyond simple derivations and
// have no dependencies outside the standard library.
package domain
