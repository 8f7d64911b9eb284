/*
Package finance provides the student financial ledger and term-transition engine.

PURPOSE:
  This package owns the mutable financial state of every student: the termly
  tuition balance, carried arrears, prepayments, and the parallel bus-fee
  ledger. It also owns the two batch transitions that move that state across
  calendar boundaries: term rollover (money) and grade promotion (grades).

KEY CONCEPTS IN THIS FILE (types.go):
  - Student: The single mutable financial entity. Created once at
    registration, mutated continuously by the ledgers and batch engines.
  - Fee / BoardingFee / Term / BusDestination: Configuration entities,
    created by administrative action and rarely changed.
  - PaymentRecord / BusPaymentRecord: Immutable ledger entries. Appended
    once, never edited; each carries a snapshot of the balance immediately
    after it was applied.

DESIGN PRINCIPLES:
  1. Precision: All money is decimal.Decimal. Floats never cross a
     package boundary.
  2. Immutability: Ledger entries record history; the Student row records
     current state. Corrections happen by new entries, not edits.
  3. Type Safety: Strong ID types prevent mixing student, term, and
     destination identifiers.

SEE ALSO:
  - ledger.go: Payment application and the balance clamp invariant
  - rollover.go: Term-boundary batch transition
  - promotion.go: Year-boundary grade transition
  - store.go: Persistence interfaces the engine consumes
*/
package finance

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type StudentID string
type TermID string
type FeeID string
type DestinationID string
type PaymentID string

// =============================================================================
// MONEY HELPERS
// =============================================================================

// Shillings builds a decimal amount from whole currency units.
// Test and seed convenience; real amounts arrive as decimals from the caller.
func Shillings(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// MustMoney parses a decimal string, returning zero on malformed input.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// STUDENT - The mutable financial entity
// =============================================================================

// Student carries all per-student financial state.
//
// INVARIANTS:
//   - Balance >= 0 after any ledger operation (overpayment clamps to zero).
//   - Arrears is only ever produced by rollover, never directly by a payment.
//     A payment can CLEAR arrears (full settlement forgives them) but never
//     create them.
//   - AdmissionNumber is unique and immutable after registration.
type Student struct {
	ID              StudentID
	AdmissionNumber string
	Name            string
	Phone           string

	// Grade is a token: "baby class", "pp1", "pp2", then numeric "1", "2", ...
	// Ordering is implied by the promotion table, not by the token itself.
	Grade string

	Balance    decimal.Decimal // owed for tuition this term
	Arrears    decimal.Decimal // unpaid balance carried from prior terms (signed: prepayment credit carries negative)
	Prepayment decimal.Decimal // paid ahead of the balance being due; reset at rollover

	IsBoarding bool
	UseBus     bool

	BusBalance decimal.Decimal // owed for bus service this term
	BusArrears decimal.Decimal // unpaid bus balance accumulated across rollovers

	Destinations []DestinationID
}

// Clone returns a deep copy, so stores can hand out values without aliasing
// the caller's slice.
func (s Student) Clone() Student {
	out := s
	out.Destinations = append([]DestinationID(nil), s.Destinations...)
	return out
}

// =============================================================================
// CONFIGURATION ENTITIES
// =============================================================================

// Fee associates (grade, term) with a tuition amount.
// At most one Fee per (grade, term) pair is consulted for a given student.
// IsPaid is a denormalized display flag; the student's own Balance is
// authoritative.
type Fee struct {
	ID     FeeID
	Grade  string
	TermID TermID
	Amount decimal.Decimal
	IsPaid bool
}

// BoardingFee is the single global surcharge applied to boarding students
// below the numeric grade threshold. See Catalog.BoardingSurcharge.
type BoardingFee struct {
	ExtraFee decimal.Decimal
}

// DefaultBoardingFee mirrors the configured production default.
func DefaultBoardingFee() BoardingFee {
	return BoardingFee{ExtraFee: Shillings(3500)}
}

// BusDestination is a named route with a per-term charge.
type BusDestination struct {
	ID     DestinationID
	Name   string
	Charge decimal.Decimal
}

// =============================================================================
// LEDGER ENTRIES - Immutable once written
// =============================================================================

// PaymentRecord is an immutable tuition ledger entry.
// BalanceAfterPayment snapshots the student's balance immediately after this
// payment was applied (post-clamp). Later events never rewrite it.
type PaymentRecord struct {
	ID                  PaymentID
	StudentID           StudentID
	Amount              decimal.Decimal
	Date                Date
	Method              string
	TermID              TermID
	BalanceAfterPayment decimal.Decimal
	Description         string
	Notes               string
}

// BusPaymentRecord is an immutable bus ledger entry.
type BusPaymentRecord struct {
	ID            PaymentID
	StudentID     StudentID
	TermID        TermID
	DestinationID DestinationID
	Amount        decimal.Decimal
	PaidAt        Date
}

// =============================================================================
// BATCH REPORTS
// =============================================================================

// RolloverReport summarizes one term-rollover batch.
// Anomalies are per-student gaps that did not abort the batch.
type RolloverReport struct {
	// NoCurrentTerm is true when no term has ended before asOf; the call was
	// a no-op and nothing below is meaningful.
	NoCurrentTerm bool

	ClosedTermID TermID
	OpenedTermID TermID

	StudentsProcessed int
	MissingFee        []MissingFeeAnomaly
}

// MissingFeeAnomaly records a student whose grade had no Fee configured for
// the opened term. Their balance was left at its pre-rollover value.
type MissingFeeAnomaly struct {
	StudentID StudentID
	Grade     string
}

// PromotionReport summarizes one promotion batch.
type PromotionReport struct {
	// Skipped is true when asOf was not promotion day and force was false.
	Skipped bool

	Year         int
	Promoted     int
	Unpromotable []UnpromotableGrade
}

// UnpromotableGrade records a student whose grade is neither in the
// promotion table nor numeric. The grade was left unchanged.
type UnpromotableGrade struct {
	StudentID StudentID
	Grade     string
}
