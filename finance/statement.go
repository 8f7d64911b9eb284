package finance

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATEMENT - Read-only projection over the tuition ledger
// =============================================================================

// StatementEntry is one ledger row as it appears on a statement.
type StatementEntry struct {
	PaymentID    PaymentID
	Date         Date
	Amount       decimal.Decimal
	Method       string
	TermID       TermID
	BalanceAfter decimal.Decimal
	Description  string
}

// Statement is a derived view of a student's payment history. It reads the
// immutable ledger entries and the current student row; it never mutates
// either.
type Statement struct {
	StudentID       StudentID
	AdmissionNumber string
	TermID          TermID // empty for a full-history statement

	Entries   []StatementEntry
	TotalPaid decimal.Decimal

	// Current state, not a replay result: the Student row is authoritative.
	Balance    decimal.Decimal
	Arrears    decimal.Decimal
	BusBalance decimal.Decimal
	BusArrears decimal.Decimal
}

// StatementBuilder assembles statements from the ledger.
type StatementBuilder struct {
	store Store
}

func NewStatementBuilder(store Store) *StatementBuilder {
	return &StatementBuilder{store: store}
}

// Build returns the student's statement. A non-empty termID restricts the
// entries (and the paid total) to that term; the balance figures always
// reflect current state.
func (b *StatementBuilder) Build(ctx context.Context, id StudentID, termID TermID) (Statement, error) {
	student, err := b.store.GetStudent(ctx, id)
	if err != nil {
		return Statement{}, err
	}

	payments, err := b.store.PaymentsByStudent(ctx, id)
	if err != nil {
		return Statement{}, err
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Date.Before(payments[j].Date)
	})

	stmt := Statement{
		StudentID:       student.ID,
		AdmissionNumber: student.AdmissionNumber,
		TermID:          termID,
		TotalPaid:       decimal.Zero,
		Balance:         student.Balance,
		Arrears:         student.Arrears,
		BusBalance:      student.BusBalance,
		BusArrears:      student.BusArrears,
	}

	for _, p := range payments {
		if termID != "" && p.TermID != termID {
			continue
		}
		stmt.Entries = append(stmt.Entries, StatementEntry{
			PaymentID:    p.ID,
			Date:         p.Date,
			Amount:       p.Amount,
			Method:       p.Method,
			TermID:       p.TermID,
			BalanceAfter: p.BalanceAfterPayment,
			Description:  p.Description,
		})
		stmt.TotalPaid = stmt.TotalPaid.Add(p.Amount)
	}

	return stmt, nil
}
