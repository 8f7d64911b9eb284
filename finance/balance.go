/*
balance.go - Opening balance computation

PURPOSE:
  Computes a student's opening balance for a term:

    balance = grade fee + boarding surcharge + carried arrears

  Runs at registration and again whenever an administrative update changes
  boarding status or arrears. Only the Balance field changes; arrears stay
  as recorded (they are additive here - only a payment clears them).

FEE LOOKUP:
  Uses Catalog.AnyTermFee, the term-agnostic lookup the production rules
  used. See the note on that method before reaching for it elsewhere.

SEE ALSO:
  - catalog.go: Fee and surcharge resolution
  - rollover.go: Term-boundary balance assignment (does NOT reuse this -
    rollover folds arrears in itself and skips the boarding surcharge)
*/
package finance

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE INITIALIZER
// =============================================================================

type BalanceInitializer struct {
	store TxStore
}

func NewBalanceInitializer(store TxStore) *BalanceInitializer {
	return &BalanceInitializer{store: store}
}

// InitializeBalance recomputes and commits the student's opening balance.
// Returns the committed balance.
//
// Fails with ErrStudentNotFound or ErrFeeNotConfigured before any write;
// a failed call leaves the student untouched.
func (bi *BalanceInitializer) InitializeBalance(ctx context.Context, id StudentID) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := bi.store.WithTx(ctx, func(s Store) error {
		student, err := s.GetStudent(ctx, id)
		if err != nil {
			return err
		}

		computed, err := computeOpeningBalance(ctx, s, student)
		if err != nil {
			return err
		}

		student.Balance = computed
		if err := s.SaveStudent(ctx, student); err != nil {
			return err
		}
		balance = computed
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// computeOpeningBalance derives the opening balance without committing.
// Shared with student registration, which initializes inside its own
// transaction.
func computeOpeningBalance(ctx context.Context, s Store, student Student) (decimal.Decimal, error) {
	catalog := NewCatalog(s)

	fee, err := catalog.AnyTermFee(ctx, student.Grade)
	if err != nil {
		return decimal.Zero, err
	}
	balance := fee.Amount

	surcharge, err := catalog.BoardingSurcharge(ctx, student.Grade, student.IsBoarding)
	if err != nil {
		return decimal.Zero, err
	}
	balance = balance.Add(surcharge)

	if !student.Arrears.IsZero() {
		balance = balance.Add(student.Arrears)
	}
	return balance, nil
}
