/*
ledger.go - Tuition payment application

PURPOSE:
  Applies a single payment to a student's tuition balance and appends the
  immutable ledger entry recording it. The Student row holds current state;
  the ledger entries hold history.

CRITICAL INVARIANTS:
  1. balance >= 0 after every payment. Overpayment clamps to zero - the
     surplus is absorbed, never held as a negative balance.
  2. Full settlement forgives arrears. When a payment drives the balance to
     (or past) zero, carried arrears are cleared too. This is a documented
     business rule, not a display artifact: it changes the student's future
     rollover base.
  3. Ledger entries are immutable. BalanceAfterPayment snapshots the
     post-clamp balance at application time and is never rewritten.

ATOMICITY:
  The read-compute-write on the student row and the ledger append happen
  inside one WithTx. Two concurrent payments against the same student
  serialize; neither can observe or overwrite the other's intermediate
  state (lost-update is the hazard this kills).

SEE ALSO:
  - bus.go: The parallel, smaller bus ledger
  - statement.go: Read-only projection over the entries written here
*/
package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT LEDGER
// =============================================================================

type PaymentLedger struct {
	store TxStore
	now   func() Date
}

func NewPaymentLedger(store TxStore) *PaymentLedger {
	return &PaymentLedger{store: store, now: Today}
}

// RecordPayment applies a payment and returns the immutable ledger entry.
//
// Fails with ErrInvalidAmount for amount <= 0 and ErrStudentNotFound for an
// unknown student, in both cases before any write.
func (l *PaymentLedger) RecordPayment(
	ctx context.Context,
	id StudentID,
	amount decimal.Decimal,
	method string,
	termID TermID,
	description string,
	notes string,
) (PaymentRecord, error) {
	if !amount.IsPositive() {
		return PaymentRecord{}, &InvalidAmountError{Amount: amount}
	}

	var record PaymentRecord
	err := l.store.WithTx(ctx, func(s Store) error {
		student, err := s.GetStudent(ctx, id)
		if err != nil {
			return err
		}

		student.Balance = student.Balance.Sub(amount)
		if student.Balance.LessThanOrEqual(decimal.Zero) {
			// Fully settled: clamp and forgive carried arrears.
			student.Balance = decimal.Zero
			student.Arrears = decimal.Zero
		}

		record = PaymentRecord{
			ID:                  PaymentID(uuid.NewString()),
			StudentID:           id,
			Amount:              amount,
			Date:                l.now(),
			Method:              method,
			TermID:              termID,
			BalanceAfterPayment: student.Balance,
			Description:         description,
			Notes:               notes,
		}
		if err := s.AppendPayment(ctx, record); err != nil {
			return err
		}
		return s.SaveStudent(ctx, student)
	})
	if err != nil {
		return PaymentRecord{}, err
	}
	return record, nil
}

// Payments returns the student's tuition ledger entries, oldest first.
func (l *PaymentLedger) Payments(ctx context.Context, id StudentID) ([]PaymentRecord, error) {
	if _, err := l.store.GetStudent(ctx, id); err != nil {
		return nil, err
	}
	return l.store.PaymentsByStudent(ctx, id)
}
