/*
rollover.go - Term rollover engine

PURPOSE:
  The batch transition of every student's financial state from one term to
  the next. Runs once per term boundary, over the full student set, as a
  single all-or-nothing transaction.

PER-STUDENT TRANSITION:
  arrears    += balance - prepayment   (signed: prepayment beyond the
                                        balance carries as NEGATIVE arrears,
                                        i.e. a credit)
  prepayment  = 0
  balance     = arrears + fee(grade, newTerm)    when that fee exists;
                unchanged otherwise (reported, not fabricated)
  bus_arrears += bus_balance           (bus debt only accumulates; there is
                                        no new-term bus balance assignment -
                                        an asymmetry with tuition, kept from
                                        the production rules)

  The new balance folds in the just-computed arrears directly and does NOT
  re-run the boarding surcharge - rollover deliberately narrows scope to
  the fee table.

BATCH GUARDS (checked before any mutation):
  - No term has ended before asOf: no-op, not an error.
  - No term starts after asOf: ErrNextTermNotConfigured, fail closed.
  - Watermark already at the closing term: ErrAlreadyRolledOver. The
    transition is not naturally idempotent (re-running re-adds arrears), so
    the watermark is what makes the boundary exactly-once. Check and set
    happen inside the same transaction as the student writes, which keeps
    concurrent scheduler triggers from double-running.

SEE ALSO:
  - promotion.go: The year-boundary counterpart for grades
  - store.go: Watermark contract
*/
package finance

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TERM ROLLOVER ENGINE
// =============================================================================

type RolloverEngine struct {
	store TxStore
}

func NewRolloverEngine(store TxStore) *RolloverEngine {
	return &RolloverEngine{store: store}
}

// RolloverTerm migrates every student's balance across the term boundary at
// asOf. Either every student commits or none do.
func (e *RolloverEngine) RolloverTerm(ctx context.Context, asOf Date) (RolloverReport, error) {
	var report RolloverReport

	err := e.store.WithTx(ctx, func(s Store) error {
		terms, err := s.ListTerms(ctx)
		if err != nil {
			return err
		}

		currentTerm, ok := CurrentTermOf(terms, asOf)
		if !ok {
			// Nothing has ended yet; there is nothing to roll over.
			report = RolloverReport{NoCurrentTerm: true}
			return nil
		}

		newTerm, ok := NextTermOf(terms, asOf)
		if !ok {
			return ErrNextTermNotConfigured
		}

		last, hasLast, err := s.LastRolledOverTerm(ctx)
		if err != nil {
			return err
		}
		if hasLast && last == currentTerm.ID {
			return &AlreadyRolledOverError{TermID: currentTerm.ID}
		}

		students, err := s.ListStudents(ctx)
		if err != nil {
			return err
		}

		report = RolloverReport{
			ClosedTermID: currentTerm.ID,
			OpenedTermID: newTerm.ID,
		}

		for _, student := range students {
			student.Arrears = student.Arrears.Add(student.Balance.Sub(student.Prepayment))
			student.Prepayment = decimal.Zero

			fee, err := s.GetFee(ctx, student.Grade, newTerm.ID)
			switch {
			case err == nil:
				student.Balance = student.Arrears.Add(fee.Amount)
			case IsNotFound(err):
				// No fee for this grade in the new term: leave the balance
				// at its pre-rollover value and surface the gap.
				report.MissingFee = append(report.MissingFee, MissingFeeAnomaly{
					StudentID: student.ID,
					Grade:     student.Grade,
				})
			default:
				return err
			}

			student.BusArrears = student.BusArrears.Add(student.BusBalance)

			if err := s.SaveStudent(ctx, student); err != nil {
				return err
			}
			report.StudentsProcessed++
		}

		return s.SetLastRolledOverTerm(ctx, currentTerm.ID)
	})
	if err != nil {
		return RolloverReport{}, err
	}
	return report, nil
}
