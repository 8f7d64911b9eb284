package finance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulepay/school-ledger/finance"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func seedBusStudent(t *testing.T, s finance.Store, id, busBalance string) {
	t.Helper()
	require.NoError(t, s.CreateStudent(context.Background(), finance.Student{
		ID:              finance.StudentID(id),
		AdmissionNumber: "ADM-" + id,
		Name:            "Student " + id,
		Grade:           "2",
		UseBus:          true,
		BusBalance:      money(busBalance),
	}))
}

func seedDestination(t *testing.T, s finance.Store, id, name, charge string) {
	t.Helper()
	require.NoError(t, s.SaveDestination(context.Background(), finance.BusDestination{
		ID:     finance.DestinationID(id),
		Name:   name,
		Charge: money(charge),
	}))
}

// =============================================================================
// BUS PAYMENT TESTS
// =============================================================================

func TestRecordBusPayment_ReducesBusBalance(t *testing.T) {
	// GIVEN: Bus rider owing 1200
	// WHEN: Paying 500
	// THEN: Bus balance is 700 and a ledger entry exists

	s := newTestStore()
	bus := finance.NewBusLedger(s)
	ctx := context.Background()

	seedBusStudent(t, s, "st-1", "1200")
	seedDestination(t, s, "dest-1", "Sigor", "1000")

	record, err := bus.RecordBusPayment(ctx, "st-1", "term-1", "dest-1", money("500"))
	require.NoError(t, err)
	assert.True(t, record.Amount.Equal(money("500")))

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.BusBalance.Equal(money("700")))

	entries, err := s.BusPaymentsByStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordBusPayment_Overpayment_ClampsToZero(t *testing.T) {
	// GIVEN: Bus rider owing 300
	// WHEN: Paying 1000
	// THEN: Bus balance clamps to 0; no credit is held

	s := newTestStore()
	bus := finance.NewBusLedger(s)
	ctx := context.Background()

	seedBusStudent(t, s, "st-1", "300")

	_, err := bus.RecordBusPayment(ctx, "st-1", "term-1", "", money("1000"))
	require.NoError(t, err)

	student, err := s.GetStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, student.BusBalance.IsZero())
}

func TestRecordBusPayment_NonBusStudent_Rejected(t *testing.T) {
	// GIVEN: Student who does not use the bus
	// WHEN: Recording a bus payment
	// THEN: ErrBusNotEnabled, no entry written

	s := newTestStore()
	bus := finance.NewBusLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "5000", "0") // UseBus false

	_, err := bus.RecordBusPayment(ctx, "st-1", "term-1", "", money("500"))
	assert.ErrorIs(t, err, finance.ErrBusNotEnabled)

	entries, err := s.BusPaymentsByStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordBusPayment_NonPositiveAmount_Rejected(t *testing.T) {
	s := newTestStore()
	bus := finance.NewBusLedger(s)

	seedBusStudent(t, s, "st-1", "1200")

	_, err := bus.RecordBusPayment(context.Background(), "st-1", "term-1", "", money("0"))
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)
}

// =============================================================================
// ADMINISTRATIVE ADJUSTMENT TESTS
// =============================================================================

func TestUpdateBusBalance_SameClampAsPayment(t *testing.T) {
	// GIVEN: Bus rider owing 300
	// WHEN: Applying an administrative deduction of 1000
	// THEN: Balance clamps to 0 exactly like a payment, but no entry is written

	s := newTestStore()
	bus := finance.NewBusLedger(s)
	ctx := context.Background()

	seedBusStudent(t, s, "st-1", "300")

	balance, err := bus.UpdateBusBalance(ctx, "st-1", money("1000"))
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	entries, err := s.BusPaymentsByStudent(ctx, "st-1")
	require.NoError(t, err)
	assert.Empty(t, entries, "administrative adjustment must not create ledger entries")
}

func TestUpdateBusBalance_NonBusStudent_Rejected(t *testing.T) {
	s := newTestStore()
	bus := finance.NewBusLedger(s)

	seedStudent(t, s, "st-1", "5000", "0")

	_, err := bus.UpdateBusBalance(context.Background(), "st-1", money("100"))
	assert.ErrorIs(t, err, finance.ErrBusNotEnabled)
}

// =============================================================================
// DESTINATION ASSIGNMENT TESTS
// =============================================================================

func TestAssignDestination_EnablesBusAndCharges(t *testing.T) {
	// GIVEN: Day student not on the bus
	// WHEN: Assigning the Sigor route (charge 1000)
	// THEN: use_bus set, destination recorded, charge added to bus balance

	s := newTestStore()
	bus := finance.NewBusLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "5000", "0")
	seedDestination(t, s, "dest-1", "Sigor", "1000")

	student, err := bus.AssignDestination(ctx, "st-1", "dest-1")
	require.NoError(t, err)

	assert.True(t, student.UseBus)
	assert.Contains(t, student.Destinations, finance.DestinationID("dest-1"))
	assert.True(t, student.BusBalance.Equal(money("1000")))
}

func TestAssignDestination_SameRouteTwice_ChargesOnce(t *testing.T) {
	// GIVEN: Student already on the Sigor route
	// WHEN: Assigning Sigor again
	// THEN: No double charge, destination list unchanged

	s := newTestStore()
	bus := finance.NewBusLedger(s)
	ctx := context.Background()

	seedStudent(t, s, "st-1", "5000", "0")
	seedDestination(t, s, "dest-1", "Sigor", "1000")

	_, err := bus.AssignDestination(ctx, "st-1", "dest-1")
	require.NoError(t, err)
	student, err := bus.AssignDestination(ctx, "st-1", "dest-1")
	require.NoError(t, err)

	assert.Len(t, student.Destinations, 1)
	assert.True(t, student.BusBalance.Equal(money("1000")), "re-assigning the same route must not re-charge")
}

func TestAssignDestination_UnknownDestination_NotFound(t *testing.T) {
	s := newTestStore()
	bus := finance.NewBusLedger(s)

	seedStudent(t, s, "st-1", "5000", "0")

	_, err := bus.AssignDestination(context.Background(), "st-1", "ghost")
	assert.ErrorIs(t, err, finance.ErrDestinationNotFound)
}
