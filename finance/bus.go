/*
bus.go - Bus fee ledger

PURPOSE:
  The smaller, parallel ledger tracking bus-destination charges and bus
  payments. Independent of the tuition ledger but sharing the Student row.

INVARIANT:
  bus_balance = max(0, bus_balance - amount) on every payment. Overpayment
  is silently absorbed; there is no bus credit and never a negative bus
  balance.

ONE GUARDED ENTRY POINT:
  Every bus-balance mutation flows through this type, and every path checks
  use_bus first. The production system had a second, unguarded mutation path
  buried in record construction; that inconsistency does not exist here.

SEE ALSO:
  - ledger.go: The tuition ledger (note: tuition clamps AND forgives
    arrears on settlement; the bus ledger only clamps)
  - rollover.go: bus_arrears accumulation at term boundaries
*/
package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// BUS LEDGER
// =============================================================================

type BusLedger struct {
	store TxStore
	now   func() Date
}

func NewBusLedger(store TxStore) *BusLedger {
	return &BusLedger{store: store, now: Today}
}

// RecordBusPayment applies a bus payment and appends the ledger entry.
//
// Fails with ErrStudentNotFound, ErrBusNotEnabled, or ErrInvalidAmount
// before any write.
func (l *BusLedger) RecordBusPayment(
	ctx context.Context,
	id StudentID,
	termID TermID,
	destinationID DestinationID,
	amount decimal.Decimal,
) (BusPaymentRecord, error) {
	if !amount.IsPositive() {
		return BusPaymentRecord{}, &InvalidAmountError{Amount: amount}
	}

	var record BusPaymentRecord
	err := l.store.WithTx(ctx, func(s Store) error {
		student, err := s.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if !student.UseBus {
			return ErrBusNotEnabled
		}

		student.BusBalance = clampBusBalance(student.BusBalance.Sub(amount))

		record = BusPaymentRecord{
			ID:            PaymentID(uuid.NewString()),
			StudentID:     id,
			TermID:        termID,
			DestinationID: destinationID,
			Amount:        amount,
			PaidAt:        l.now(),
		}
		if err := s.AppendBusPayment(ctx, record); err != nil {
			return err
		}
		return s.SaveStudent(ctx, student)
	})
	if err != nil {
		return BusPaymentRecord{}, err
	}
	return record, nil
}

// UpdateBusBalance applies the same clamped deduction without creating a
// ledger entry. Administrative adjustments use this; the clamp rule is
// identical to RecordBusPayment by construction.
func (l *BusLedger) UpdateBusBalance(ctx context.Context, id StudentID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, &InvalidAmountError{Amount: amount}
	}

	var balance decimal.Decimal
	err := l.store.WithTx(ctx, func(s Store) error {
		student, err := s.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if !student.UseBus {
			return ErrBusNotEnabled
		}

		student.BusBalance = clampBusBalance(student.BusBalance.Sub(amount))
		balance = student.BusBalance
		return s.SaveStudent(ctx, student)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// AssignDestination puts the student on a bus route: marks use_bus, records
// the destination, and adds the route charge to the bus balance. Assigning
// an already-assigned destination only re-adds the charge if the route
// changed the student's destination set.
func (l *BusLedger) AssignDestination(ctx context.Context, id StudentID, destinationID DestinationID) (Student, error) {
	var updated Student
	err := l.store.WithTx(ctx, func(s Store) error {
		student, err := s.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		dest, err := s.GetDestination(ctx, destinationID)
		if err != nil {
			return err
		}

		for _, d := range student.Destinations {
			if d == destinationID {
				updated = student
				return nil
			}
		}

		student.UseBus = true
		student.Destinations = append(student.Destinations, destinationID)
		student.BusBalance = student.BusBalance.Add(dest.Charge)
		updated = student
		return s.SaveStudent(ctx, student)
	})
	if err != nil {
		return Student{}, err
	}
	return updated, nil
}

func clampBusBalance(b decimal.Decimal) decimal.Decimal {
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}
