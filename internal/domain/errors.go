package domain

import (
	"errors"
	"fmt"
)

// ErrNoPendingDues is returned when a payment finds nothing to apply: both
// allocation lists are empty and the whole amount would become excess.
var ErrNoPendingDues = errors.New("no pending dues to apply payment against")

// ErrConflict signals stale obligation state detected at write time. The
// caller should retry the payment; nothing was applied.
var ErrConflict = errors.New("obligation changed concurrently")

// ErrNotFound is returned when a requested record does not exist or is not
// visible to the requesting customer.
var ErrNotFound = errors.New("not found")

// ValidationError reports a malformed request before any work is done.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreError wraps an underlying persistence failure, keeping the failed
// operation name for diagnostics. The cause is surfaced verbatim via Unwrap.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }
