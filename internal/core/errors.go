package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCategory rejects a write referencing a key outside the registry.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidAmount rejects negative or non-numeric amounts and non-positive
	// spend or replenish magnitudes. Bad input is never coerced to zero.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotFound is the explicit absent-value for queries with no matching
	// snapshot or ledger entry. "No data yet" is an expected steady state.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientHistory is returned when even the earliest-snapshot
	// fallback cannot produce a comparison (zero or one snapshot stored).
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrAlreadyInitialized rejects a second initialize on an active ledger.
	ErrAlreadyInitialized = errors.New("ledger already initialized")

	// ErrUninitialized rejects spend on a ledger with no entries.
	ErrUninitialized = errors.New("ledger not initialized")

	// ErrPriceUnavailable is returned when the price feed cannot supply a unit
	// price and no last-known price exists.
	ErrPriceUnavailable = errors.New("unit price unavailable")
)

// CollaboratorError wraps a persistence or price-feed I/O failure after
// bounded retries were exhausted. The wrapped error is surfaced as-is; the
// engine never substitutes a fabricated value for a failed collaborator call.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// IsCollaboratorError reports whether err stems from collaborator I/O.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
