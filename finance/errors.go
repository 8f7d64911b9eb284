/*
errors.go - Centralized error types for the finance engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes with the Is* helpers below.

ERROR CATEGORIES:
  1. Not-found errors - A referenced student/fee/term/destination is absent
  2. Validation errors - Non-positive amounts, malformed input
  3. Precondition errors - Batch guards (no next term, already rolled over)
  4. Store errors - Transaction/persistence failures, wrapped by the caller

USAGE:
  Callers classify with errors.Is or the helpers:

    if finance.IsNotFound(err) {
        // 404
    }
*/
package finance

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStudentNotFound is returned when a student id does not resolve.
	ErrStudentNotFound = errors.New("student not found")

	// ErrTermNotFound is returned when a referenced term doesn't exist.
	ErrTermNotFound = errors.New("term not found")

	// ErrDestinationNotFound is returned when a bus destination doesn't exist.
	ErrDestinationNotFound = errors.New("bus destination not found")

	// ErrFeeNotConfigured is returned when no Fee row exists for a grade
	// (or grade+term). Balance initialization cannot proceed without one.
	ErrFeeNotConfigured = errors.New("fee not configured")

	// ErrBoardingFeeNotConfigured is returned when the global boarding
	// surcharge has not been set up.
	ErrBoardingFeeNotConfigured = errors.New("boarding fee not configured")

	// ErrInvalidAmount is returned for non-positive payment amounts. The
	// caller boundary owns validation, but the engine rejects these too so
	// the ledger invariant never depends on the caller.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrBusNotEnabled is returned when recording a bus payment for a
	// student who does not use the bus.
	ErrBusNotEnabled = errors.New("student does not use the bus")

	// ErrNextTermNotConfigured is returned when rollover finds no term
	// starting after the as-of date. The batch performs no mutation.
	ErrNextTermNotConfigured = errors.New("next term not configured")

	// ErrAlreadyRolledOver is returned when rollover is re-triggered for a
	// term that has already been processed. Without this guard a duplicate
	// run would double-add arrears.
	ErrAlreadyRolledOver = errors.New("term already rolled over")

	// ErrAlreadyPromoted is returned when promotion is re-triggered within
	// a year that has already been processed.
	ErrAlreadyPromoted = errors.New("students already promoted this year")

	// ErrDuplicateAdmission is returned when registering a student with an
	// admission number that already exists.
	ErrDuplicateAdmission = errors.New("admission number already registered")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FeeNotConfiguredError identifies the grade (and term, when the lookup was
// term-scoped) that has no fee configured.
type FeeNotConfiguredError struct {
	Grade  string
	TermID TermID // empty for the any-term lookup
}

func (e *FeeNotConfiguredError) Error() string {
	if e.TermID == "" {
		return fmt.Sprintf("no fee configured for grade %q", e.Grade)
	}
	return fmt.Sprintf("no fee configured for grade %q in term %s", e.Grade, e.TermID)
}

func (e *FeeNotConfiguredError) Unwrap() error { return ErrFeeNotConfigured }

// InvalidAmountError reports the rejected amount.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid payment amount %s: must be positive", e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// AlreadyRolledOverError identifies the term a duplicate rollover targeted.
type AlreadyRolledOverError struct {
	TermID TermID
}

func (e *AlreadyRolledOverError) Error() string {
	return fmt.Sprintf("term %s already rolled over", e.TermID)
}

func (e *AlreadyRolledOverError) Unwrap() error { return ErrAlreadyRolledOver }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrTermNotFound) ||
		errors.Is(err, ErrDestinationNotFound) ||
		errors.Is(err, ErrFeeNotConfigured) ||
		errors.Is(err, ErrBoardingFeeNotConfigured)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrDuplicateAdmission)
}

// IsPreconditionFailed returns true for batch/state guards: the request was
// well-formed but the system is not in a state that allows it.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrNextTermNotConfigured) ||
		errors.Is(err, ErrAlreadyRolledOver) ||
		errors.Is(err, ErrAlreadyPromoted) ||
		errors.Is(err, ErrBusNotEnabled)
}
