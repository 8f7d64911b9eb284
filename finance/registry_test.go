package finance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulepay/school-ledger/finance"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// =============================================================================
// REGISTRATION TESTS
// =============================================================================

func TestRegister_CreatesStudentWithOpeningBalance(t *testing.T) {
	// GIVEN: Grade 2 fee 5000, boarding surcharge 4500
	// WHEN: Registering a grade 2 boarder
	// THEN: Student exists with balance 9500

	s := newTestStore()
	registrar := finance.NewRegistrar(s)
	ctx := context.Background()

	seedFee(t, s, "2", "term-1", "5000")
	seedBoardingFee(t, s, "4500")

	student, err := registrar.Register(ctx, finance.NewStudent{
		AdmissionNumber: "ADM001",
		Name:            "Jane",
		Grade:           "2",
		IsBoarding:      true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, student.ID)
	assert.True(t, student.Balance.Equal(money("9500")))

	stored, err := s.GetStudentByAdmission(ctx, "ADM001")
	require.NoError(t, err)
	assert.Equal(t, student.ID, stored.ID)
}

func TestRegister_DuplicateAdmission_Rejected(t *testing.T) {
	// GIVEN: ADM001 already registered
	// WHEN: Registering another student with ADM001
	// THEN: ErrDuplicateAdmission, no second student created

	s := newTestStore()
	registrar := finance.NewRegistrar(s)
	ctx := context.Background()

	seedFee(t, s, "2", "term-1", "5000")

	_, err := registrar.Register(ctx, finance.NewStudent{AdmissionNumber: "ADM001", Name: "Jane", Grade: "2"})
	require.NoError(t, err)

	_, err = registrar.Register(ctx, finance.NewStudent{AdmissionNumber: "ADM001", Name: "John", Grade: "2"})
	assert.ErrorIs(t, err, finance.ErrDuplicateAdmission)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestRegister_NoFeeForGrade_NothingCreated(t *testing.T) {
	// GIVEN: No fee configured for grade 9
	// WHEN: Registering a grade 9 student
	// THEN: Registration fails atomically

	s := newTestStore()
	registrar := finance.NewRegistrar(s)
	ctx := context.Background()

	_, err := registrar.Register(ctx, finance.NewStudent{AdmissionNumber: "ADM001", Name: "Jane", Grade: "9"})
	assert.ErrorIs(t, err, finance.ErrFeeNotConfigured)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students, "failed registration must not leave a student behind")
}

// =============================================================================
// ADMINISTRATIVE UPDATE TESTS
// =============================================================================

func TestUpdate_Rename_DoesNotTouchBalance(t *testing.T) {
	// GIVEN: Registered student
	// WHEN: Updating only the name
	// THEN: The balance is not recomputed

	s := newTestStore()
	registrar := finance.NewRegistrar(s)
	ledger := finance.NewPaymentLedger(s)
	ctx := context.Background()

	seedFee(t, s, "2", "term-1", "5000")
	student, err := registrar.Register(ctx, finance.NewStudent{AdmissionNumber: "ADM001", Name: "Jane", Grade: "2"})
	require.NoError(t, err)

	// Pay down the balance so a spurious recompute would be visible
	_, err = ledger.RecordPayment(ctx, student.ID, money("2000"), "cash", "term-1", "", "")
	require.NoError(t, err)

	updated, err := registrar.Update(ctx, student.ID, finance.StudentUpdate{Name: strPtr("Jane W")})
	require.NoError(t, err)

	assert.Equal(t, "Jane W", updated.Name)
	assert.True(t, updated.Balance.Equal(money("3000")), "rename must not reset the balance")
}

func TestUpdate_BoardingChange_RecomputesBalance(t *testing.T) {
	// GIVEN: Day scholar in grade 2 (fee 5000, surcharge 4500)
	// WHEN: Switching to boarding
	// THEN: Balance recomputed to fee + surcharge

	s := newTestStore()
	registrar := finance.NewRegistrar(s)
	ctx := context.Background()

	seedFee(t, s, "2", "term-1", "5000")
	seedBoardingFee(t, s, "4500")

	student, err := registrar.Register(ctx, finance.NewStudent{AdmissionNumber: "ADM001", Name: "Jane", Grade: "2"})
	require.NoError(t, err)
	require.True(t, student.Balance.Equal(money("5000")))

	updated, err := registrar.Update(ctx, student.ID, finance.StudentUpdate{IsBoarding: boolPtr(true)})
	require.NoError(t, err)

	assert.True(t, updated.IsBoarding)
	assert.True(t, updated.Balance.Equal(money("9500")))
}

func TestUpdate_ArrearsAdjustment_RecomputesBalance(t *testing.T) {
	// GIVEN: Registered grade 2 student (fee 5000)
	// WHEN: An administrative arrears adjustment to 1500
	// THEN: Balance recomputed to 6500

	s := newTestStore()
	registrar := finance.NewRegistrar(s)
	ctx := context.Background()

	seedFee(t, s, "2", "term-1", "5000")

	student, err := registrar.Register(ctx, finance.NewStudent{AdmissionNumber: "ADM001", Name: "Jane", Grade: "2"})
	require.NoError(t, err)

	updated, err := registrar.Update(ctx, student.ID, finance.StudentUpdate{Arrears: strPtr("1500")})
	require.NoError(t, err)

	assert.True(t, updated.Arrears.Equal(money("1500")))
	assert.True(t, updated.Balance.Equal(money("6500")))
}

func TestUpdate_MalformedArrears_Rejected(t *testing.T) {
	s := newTestStore()
	registrar := finance.NewRegistrar(s)
	ctx := context.Background()

	seedFee(t, s, "2", "term-1", "5000")
	student, err := registrar.Register(ctx, finance.NewStudent{AdmissionNumber: "ADM001", Name: "Jane", Grade: "2"})
	require.NoError(t, err)

	_, err = registrar.Update(ctx, student.ID, finance.StudentUpdate{Arrears: strPtr("not-money")})
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)
}

func TestRemove_DeletesStudent(t *testing.T) {
	s := newTestStore()
	registrar := finance.NewRegistrar(s)
	ctx := context.Background()

	seedFee(t, s, "2", "term-1", "5000")
	student, err := registrar.Register(ctx, finance.NewStudent{AdmissionNumber: "ADM001", Name: "Jane", Grade: "2"})
	require.NoError(t, err)

	require.NoError(t, registrar.Remove(ctx, student.ID))

	_, err = s.GetStudent(ctx, student.ID)
	assert.ErrorIs(t, err, finance.ErrStudentNotFound)
}

func TestRemove_UnknownStudent_NotFound(t *testing.T) {
	s := newTestStore()
	registrar := finance.NewRegistrar(s)

	err := registrar.Remove(context.Background(), "ghost")
	assert.ErrorIs(t, err, finance.ErrStudentNotFound)
}
