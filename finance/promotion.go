/*
promotion.go - Grade promotion engine

PURPOSE:
  The batch transition of every student's grade at the calendar year
  boundary. Independent of money; mutates only the Grade field.

PROMOTION RULE:
  1. Lowercased grade in the promotion table -> mapped value
     (default: "baby class" -> "pp1" -> "pp2" -> "1").
  2. Otherwise, numeric grade n -> n+1.
  3. Otherwise the grade is left untouched and reported as unpromotable.
     One bad record never fails the batch.

TRIGGER:
  The calendar rule (December 31) belongs to the scheduler, not to this
  engine. Callers that already know it is promotion day pass force=true;
  otherwise a non-year-end asOf is a reported no-op. The per-year watermark
  makes the batch exactly-once under duplicate triggers within the day.

CONFIGURATION:
  The promotion table is passed in at construction - no package-level
  mutable state.
*/
package finance

import (
	"context"
	"strconv"
	"strings"
)

// =============================================================================
// PROMOTION TABLE
// =============================================================================

// PromotionTable maps lowercased grade tokens to their successor. Grades
// absent from the table fall through to the numeric n+1 rule.
type PromotionTable map[string]string

// DefaultPromotionTable covers the pre-primary tiers below numeric grade 1.
func DefaultPromotionTable() PromotionTable {
	return PromotionTable{
		"baby class": "pp1",
		"pp1":        "pp2",
		"pp2":        "1",
	}
}

// Next resolves the successor grade. ok=false means the grade is neither
// mapped nor numeric.
func (pt PromotionTable) Next(grade string) (string, bool) {
	if next, found := pt[strings.ToLower(grade)]; found {
		return next, true
	}
	if n, numeric := parseNumericGrade(strings.ToLower(grade)); numeric {
		return strconv.Itoa(n + 1), true
	}
	return grade, false
}

// =============================================================================
// PROMOTION ENGINE
// =============================================================================

type PromotionEngine struct {
	store TxStore
	table PromotionTable
}

func NewPromotionEngine(store TxStore, table PromotionTable) *PromotionEngine {
	if table == nil {
		table = DefaultPromotionTable()
	}
	return &PromotionEngine{store: store, table: table}
}

// PromoteStudents advances every student one grade. All mutations commit as
// one unit.
//
// Returns a Skipped report when asOf is not December 31 and force is false,
// and ErrAlreadyPromoted when this year's batch already ran.
func (e *PromotionEngine) PromoteStudents(ctx context.Context, asOf Date, force bool) (PromotionReport, error) {
	if !force && !asOf.IsYearEnd() {
		return PromotionReport{Skipped: true, Year: asOf.Year()}, nil
	}

	var report PromotionReport
	err := e.store.WithTx(ctx, func(s Store) error {
		last, hasLast, err := s.LastPromotedYear(ctx)
		if err != nil {
			return err
		}
		if hasLast && last == asOf.Year() {
			return ErrAlreadyPromoted
		}

		students, err := s.ListStudents(ctx)
		if err != nil {
			return err
		}

		report = PromotionReport{Year: asOf.Year()}
		for _, student := range students {
			next, ok := e.table.Next(student.Grade)
			if !ok {
				report.Unpromotable = append(report.Unpromotable, UnpromotableGrade{
					StudentID: student.ID,
					Grade:     student.Grade,
				})
				continue
			}

			student.Grade = next
			if err := s.SaveStudent(ctx, student); err != nil {
				return err
			}
			report.Promoted++
		}

		return s.SetLastPromotedYear(ctx, asOf.Year())
	})
	if err != nil {
		return PromotionReport{}, err
	}
	return report, nil
}
