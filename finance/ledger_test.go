package finance_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulepay/school-ledger/finance"
	"github.com/shulepay/school-ledger/finance/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore() *store.Memory {
	return store.NewMemory()
}

func money(s string) decimal.Decimal {
	return finance.MustMoney(s)
}

// seedStudent inserts a student with the given balances directly, bypassing
// registration, so ledger tests control the starting state exactly.
func seedStudent(t *testing.T, s finance.Store, id string, balance, arrears string) finance.Student {
	t.Helper()
	student := finance.Student{
		ID:              finance.StudentID(id),
		AdmissionNumber: "ADM-" + id,
		Name:            "Student " + id,
		Grade:           "3",
		Balance:         money(balance),
		Arrears:         money(arrears),
	}
	require.NoError(t, s.CreateStudent(context.Background(), student))
	return student
}

// =============================================================================
// PAYMENT APPLICATION TESTS
// =============================================================================

func TestRecordPayment_PartialPayment_ReducesBalance(t *testing.T) {
	// GIVEN: Student owing 10000
	// WHEN: Paying 4000
	// THEN: Balance is 6000 and the ledger entry snapshots it

	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "10000", "0")

	record, err := ledger.RecordPayment(ctx, "st-1", money("4000"), "mpesa", "term-1", "term 1 fees", "")
	require.NoError(t, err)

	assert.True(t, record.BalanceAfterPayment.Equal(money("6000")),
		"ledger entry should snapshot post-payment balance, got %s", record.BalanceAfterPayment)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Balance.Equal(money("6000")))
}

func TestRecordPayment_Overpayment_ClampsToZero(t *testing.T) {
	// GIVEN: Student owing 3000
	// WHEN: Paying 5000
	// THEN: Balance clamps to exactly 0, never negative

	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "3000", "0")

	record, err := ledger.RecordPayment(ctx, "st-1", money("5000"), "cash", "term-1", "", "")
	require.NoError(t, err)

	assert.True(t, record.BalanceAfterPayment.IsZero(),
		"overpayment should clamp to zero, got %s", record.BalanceAfterPayment)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Balance.IsZero())
}

func TestRecordPayment_FullSettlement_ForgivesArrears(t *testing.T) {
	// GIVEN: Student owing 3000 with 800 carried arrears
	// WHEN: Paying the full 3000
	// THEN: Balance is 0 AND arrears are cleared

	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "3000", "800")

	_, err := ledger.RecordPayment(ctx, "st-1", money("3000"), "bank", "term-1", "", "")
	require.NoError(t, err)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Balance.IsZero())
	assert.True(t, student.Arrears.IsZero(), "full settlement should forgive arrears, got %s", student.Arrears)
}

func TestRecordPayment_PartialPayment_KeepsArrears(t *testing.T) {
	// GIVEN: Student owing 3000 with 800 carried arrears
	// WHEN: Paying only 1000
	// THEN: Arrears stay untouched

	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "3000", "800")

	_, err := ledger.RecordPayment(ctx, "st-1", money("1000"), "cash", "term-1", "", "")
	require.NoError(t, err)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Balance.Equal(money("2000")))
	assert.True(t, student.Arrears.Equal(money("800")), "partial payment must not touch arrears")
}

func TestRecordPayment_ZeroAmount_Rejected(t *testing.T) {
	// GIVEN: Any student
	// WHEN: Paying 0
	// THEN: ErrInvalidAmount, no ledger entry, no balance change

	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "3000", "0")

	_, err := ledger.RecordPayment(ctx, "st-1", money("0"), "cash", "term-1", "", "")
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)

	payments, err := s.PaymentsByStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.Empty(t, payments, "rejected payment must not leave a ledger entry")
}

func TestRecordPayment_NegativeAmount_Rejected(t *testing.T) {
	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)

	seedStudent(t, s, "st-1", "3000", "0")

	_, err := ledger.RecordPayment(context.Background(), "st-1", money("-50"), "cash", "term-1", "", "")
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)

	var invalidErr *finance.InvalidAmountError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestRecordPayment_UnknownStudent_NotFound(t *testing.T) {
	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)

	_, err := ledger.RecordPayment(context.Background(), "ghost", money("100"), "cash", "term-1", "", "")
	assert.ErrorIs(t, err, finance.ErrStudentNotFound)
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestRecordPayment_ConcurrentPayments_DrainExactly(t *testing.T) {
	// GIVEN: Student owing 10000
	// WHEN: 10 goroutines each pay 1000 concurrently
	// THEN: Balance is exactly 0 (no lost updates) and all 10 entries exist

	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "10000", "0")

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.RecordPayment(ctx, "st-1", money("1000"), "mpesa",
				"term-1", fmt.Sprintf("installment %d", i), "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "payment %d failed", i)
	}

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.Balance.IsZero(),
		"10 x 1000 against 10000 must drain to exactly 0, got %s", student.Balance)

	payments, err := s.PaymentsByStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.Len(t, payments, workers)
}

// =============================================================================
// PAYMENT QUERY TESTS
// =============================================================================

func TestPayments_UnknownStudent_NotFound(t *testing.T) {
	s := newTestStore()
	ledger := finance.NewPaymentLedger(s)

	_, err := ledger.Payments(context.Background(), "ghost")
	assert.ErrorIs(t, err, finance.ErrStudentNotFound)
}
