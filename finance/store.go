/*
store.go - Persistence interfaces the engine consumes

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  never talks to a driver directly; it receives a Store (inside an ambient
  transaction) and reads/writes records through it. Different
  implementations back this with SQLite or in-memory maps.

KEY INTERFACES:
  Store:   Record access (students, fees, terms, ledger entries, watermarks)
  TxStore: Store plus WithTx, the atomic commit/rollback boundary

LEDGER CONTRACT:
  AppendPayment and AppendBusPayment are append-only. There is no update or
  delete on ledger entries here; administrative corrections live outside the
  engine and explicitly bypass its invariants.

WATERMARKS:
  LastRolledOverTerm and LastPromotedYear are the re-entrancy guards for the
  batch engines. They are read and set INSIDE the same WithTx as the batch
  mutation, which makes the check-and-set atomic under concurrent scheduler
  triggers.

IMPLEMENTATIONS:
  - finance/store/memory.go: In-memory, for tests and development
  - store/sqlite/sqlite.go:  Production SQLite

SEE ALSO:
  - rollover.go, promotion.go: The batch engines using the watermarks
  - ledger.go, bus.go: Per-student operations using WithTx
*/
package finance

import "context"

// =============================================================================
// STORE - Record access within an ambient transaction
// =============================================================================

type Store interface {
	// Students
	GetStudent(ctx context.Context, id StudentID) (Student, error)
	GetStudentByAdmission(ctx context.Context, admissionNumber string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	CreateStudent(ctx context.Context, s Student) error
	SaveStudent(ctx context.Context, s Student) error
	DeleteStudent(ctx context.Context, id StudentID) error

	// Fee configuration
	GetFee(ctx context.Context, grade string, termID TermID) (Fee, error)
	// FirstFeeForGrade returns the first configured fee for a grade
	// regardless of term. See Catalog.AnyTermFee for why this exists.
	FirstFeeForGrade(ctx context.Context, grade string) (Fee, error)
	ListFeesForTerm(ctx context.Context, termID TermID) ([]Fee, error)
	SaveFee(ctx context.Context, f Fee) error
	GetBoardingFee(ctx context.Context) (BoardingFee, error)
	SaveBoardingFee(ctx context.Context, b BoardingFee) error

	// Terms
	GetTerm(ctx context.Context, id TermID) (Term, error)
	ListTerms(ctx context.Context) ([]Term, error)
	SaveTerm(ctx context.Context, t Term) error

	// Bus destinations
	GetDestination(ctx context.Context, id DestinationID) (BusDestination, error)
	ListDestinations(ctx context.Context) ([]BusDestination, error)
	SaveDestination(ctx context.Context, d BusDestination) error

	// Ledger entries (append-only)
	AppendPayment(ctx context.Context, p PaymentRecord) error
	AppendBusPayment(ctx context.Context, p BusPaymentRecord) error
	PaymentsByStudent(ctx context.Context, id StudentID) ([]PaymentRecord, error)
	BusPaymentsByStudent(ctx context.Context, id StudentID) ([]BusPaymentRecord, error)

	// Batch watermarks
	LastRolledOverTerm(ctx context.Context) (TermID, bool, error)
	SetLastRolledOverTerm(ctx context.Context, id TermID) error
	LastPromotedYear(ctx context.Context) (int, bool, error)
	SetLastPromotedYear(ctx context.Context, year int) error
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic commit/rollback boundary
// =============================================================================

// TxStore wraps Store with transaction support.
//
// WithTx executes fn against a transactional view of the store. If fn
// returns an error, every write inside it is rolled back; otherwise all
// writes commit together. Bulk engines rely on this for all-or-nothing
// semantics over the full student set, and per-student operations rely on
// it to make read-compute-write a single atomic unit.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
