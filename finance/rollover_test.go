/*
rollover_test.go - Term rollover engine tests

CORE DESIGN UNDER TEST:
- arrears += balance - prepayment, then prepayment = 0
- balance = arrears + new term fee when the fee exists; unchanged otherwise
- bus_arrears += bus_balance (bus debt only accumulates)
- The whole batch is one transaction guarded by a per-term watermark
*/
package finance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulepay/school-ledger/finance"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func seedTerm(t *testing.T, s finance.Store, id, name string, start, end finance.Date) {
	t.Helper()
	require.NoError(t, s.SaveTerm(context.Background(), finance.Term{
		ID:    finance.TermID(id),
		Name:  name,
		Start: start,
		End:   end,
	}))
}

// seedTwoTerms configures term-1 (Jan-Mar) and term-2 (May-Jul) of 2026 and
// returns a between-terms as-of date.
func seedTwoTerms(t *testing.T, s finance.Store) finance.Date {
	t.Helper()
	seedTerm(t, s, "term-1", "Term 1 2026",
		finance.NewDate(2026, time.January, 5), finance.NewDate(2026, time.March, 27))
	seedTerm(t, s, "term-2", "Term 2 2026",
		finance.NewDate(2026, time.May, 4), finance.NewDate(2026, time.July, 31))
	return finance.NewDate(2026, time.April, 10)
}

// =============================================================================
// PER-STUDENT TRANSITION TESTS
// =============================================================================

func TestRolloverTerm_CarriesDebtAndAssignsNewFee(t *testing.T) {
	// GIVEN: Student with balance 1000, prepayment 200, arrears 0;
	//        new term fee for their grade is 500
	// WHEN: Rolling over between terms
	// THEN: arrears = 800, prepayment = 0, balance = 800 + 500 = 1300

	s := newTestStore()
	engine := finance.NewRolloverEngine(s)
	ctx := context.Background()

	asOf := seedTwoTerms(t, s)
	seedFee(t, s, "3", "term-2", "500")

	require.NoError(t, s.CreateStudent(ctx, finance.Student{
		ID:              "st-1",
		AdmissionNumber: "ADM-1",
		Name:            "Student 1",
		Grade:           "3",
		Balance:         money("1000"),
		Prepayment:      money("200"),
	}))

	report, err := engine.RolloverTerm(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, finance.TermID("term-1"), report.ClosedTermID)
	assert.Equal(t, finance.TermID("term-2"), report.OpenedTermID)
	assert.Equal(t, 1, report.StudentsProcessed)
	assert.Empty(t, report.MissingFee)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Arrears.Equal(money("800")), "arrears got %s", student.Arrears)
	assert.True(t, student.Prepayment.IsZero())
	assert.True(t, student.Balance.Equal(money("1300")), "balance got %s", student.Balance)
}

func TestRolloverTerm_PrepaymentBeyondBalance_CarriesAsCredit(t *testing.T) {
	// GIVEN: Student paid ahead: balance 300, prepayment 1000
	// WHEN: Rolling over with a new term fee of 500
	// THEN: arrears = -700 (credit), balance = -700 + 500 = -200

	s := newTestStore()
	engine := finance.NewRolloverEngine(s)
	ctx := context.Background()

	asOf := seedTwoTerms(t, s)
	seedFee(t, s, "3", "term-2", "500")

	require.NoError(t, s.CreateStudent(ctx, finance.Student{
		ID:              "st-1",
		AdmissionNumber: "ADM-1",
		Name:            "Student 1",
		Grade:           "3",
		Balance:         money("300"),
		Prepayment:      money("1000"),
	}))

	_, err := engine.RolloverTerm(ctx, asOf)
	require.NoError(t, err)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Arrears.Equal(money("-700")), "credit should carry as negative arrears, got %s", student.Arrears)
	assert.True(t, student.Balance.Equal(money("-200")))
}

func TestRolloverTerm_MissingNewTermFee_ReportedNotFabricated(t *testing.T) {
	// GIVEN: Grade 4 has no fee in the new term
	// WHEN: Rolling over
	// THEN: Arrears and bus arrears still transition, the balance keeps its
	//       pre-rollover value, and the gap is reported

	s := newTestStore()
	engine := finance.NewRolloverEngine(s)
	ctx := context.Background()

	asOf := seedTwoTerms(t, s)

	require.NoError(t, s.CreateStudent(ctx, finance.Student{
		ID:              "st-1",
		AdmissionNumber: "ADM-1",
		Name:            "Student 1",
		Grade:           "4",
		Balance:         money("1000"),
	}))

	report, err := engine.RolloverTerm(ctx, asOf)
	require.NoError(t, err)

	require.Len(t, report.MissingFee, 1)
	assert.Equal(t, finance.StudentID("st-1"), report.MissingFee[0].StudentID)
	assert.Equal(t, "4", report.MissingFee[0].Grade)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Arrears.Equal(money("1000")))
	assert.True(t, student.Balance.Equal(money("1000")), "balance must stay put when no fee exists")
}

func TestRolloverTerm_BusArrearsAccumulate(t *testing.T) {
	// GIVEN: Bus rider with bus balance 400 and bus arrears 100
	// WHEN: Rolling over
	// THEN: bus_arrears = 500; bus_balance is untouched by rollover

	s := newTestStore()
	engine := finance.NewRolloverEngine(s)
	ctx := context.Background()

	asOf := seedTwoTerms(t, s)
	seedFee(t, s, "2", "term-2", "5000")

	require.NoError(t, s.CreateStudent(ctx, finance.Student{
		ID:              "st-1",
		AdmissionNumber: "ADM-1",
		Name:            "Student 1",
		Grade:           "2",
		UseBus:          true,
		BusBalance:      money("400"),
		BusArrears:      money("100"),
	}))

	_, err := engine.RolloverTerm(ctx, asOf)
	require.NoError(t, err)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.BusArrears.Equal(money("500")), "got %s", student.BusArrears)
	assert.True(t, student.BusBalance.Equal(money("400")), "rollover must not reset the bus balance")
}

// =============================================================================
// BATCH GUARD TESTS
// =============================================================================

func TestRolloverTerm_NoEndedTerm_NoOp(t *testing.T) {
	// GIVEN: The only term has not ended yet
	// WHEN: Rolling over mid-term
	// THEN: Reported no-op, no error, no mutation

	s := newTestStore()
	engine := finance.NewRolloverEngine(s)
	ctx := context.Background()

	seedTerm(t, s, "term-1", "Term 1 2026",
		finance.NewDate(2026, time.January, 5), finance.NewDate(2026, time.March, 27))
	seedStudent(t, s, "st-1", "1000", "0")

	report, err := engine.RolloverTerm(ctx, finance.NewDate(2026, time.February, 1))
	require.NoError(t, err)
	assert.True(t, report.NoCurrentTerm)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Balance.Equal(money("1000")))
}

func TestRolloverTerm_NoNextTerm_FailsClosed(t *testing.T) {
	// GIVEN: A term has ended but no successor is configured
	// WHEN: Rolling over
	// THEN: ErrNextTermNotConfigured and every student is untouched

	s := newTestStore()
	engine := finance.NewRolloverEngine(s)
	ctx := context.Background()

	seedTerm(t, s, "term-1", "Term 1 2026",
		finance.NewDate(2026, time.January, 5), finance.NewDate(2026, time.March, 27))
	seedStudent(t, s, "st-1", "1000", "0")

	_, err := engine.RolloverTerm(ctx, finance.NewDate(2026, time.April, 10))
	assert.ErrorIs(t, err, finance.ErrNextTermNotConfigured)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Balance.Equal(money("1000")))
	assert.True(t, student.Arrears.IsZero(), "fail-closed rollover must not mutate arrears")
}

func TestRolloverTerm_SecondRun_Rejected(t *testing.T) {
	// GIVEN: The boundary was already rolled over
	// WHEN: Triggering again for the same boundary
	// THEN: ErrAlreadyRolledOver; arrears are not double-added

	s := newTestStore()
	engine := finance.NewRolloverEngine(s)
	ctx := context.Background()

	asOf := seedTwoTerms(t, s)
	seedFee(t, s, "3", "term-2", "500")
	seedStudent(t, s, "st-1", "1000", "0")

	_, err := engine.RolloverTerm(ctx, asOf)
	require.NoError(t, err)

	_, err = engine.RolloverTerm(ctx, asOf)
	assert.ErrorIs(t, err, finance.ErrAlreadyRolledOver)

	var dupErr *finance.AlreadyRolledOverError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, finance.TermID("term-1"), dupErr.TermID)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Arrears.Equal(money("1000")), "second trigger must not re-add arrears")
}

func TestRolloverTerm_NextBoundary_AllowedAfterWatermark(t *testing.T) {
	// GIVEN: term-1 -> term-2 already rolled over
	// WHEN: term-2 ends and term-3 exists
	// THEN: The next boundary rolls over normally

	s := newTestStore()
	engine := finance.NewRolloverEngine(s)
	ctx := context.Background()

	asOf := seedTwoTerms(t, s)
	seedTerm(t, s, "term-3", "Term 3 2026",
		finance.NewDate(2026, time.September, 1), finance.NewDate(2026, time.November, 20))
	seedFee(t, s, "3", "term-2", "500")
	seedFee(t, s, "3", "term-3", "600")
	seedStudent(t, s, "st-1", "1000", "0")

	_, err := engine.RolloverTerm(ctx, asOf)
	require.NoError(t, err)

	report, err := engine.RolloverTerm(ctx, finance.NewDate(2026, time.August, 10))
	require.NoError(t, err)
	assert.Equal(t, finance.TermID("term-2"), report.ClosedTermID)
	assert.Equal(t, finance.TermID("term-3"), report.OpenedTermID)
}
