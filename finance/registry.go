/*
registry.go - Student registration and administrative updates

PURPOSE:
  Student rows are created exactly once, at registration, and from then on
  only mutated - by the ledgers and the batch engines continuously, and by
  administrative updates occasionally. This file owns the create/update
  paths and the rule that both must leave the student with a correctly
  initialized balance.

BALANCE RECOMPUTATION:
  Registration always computes the opening balance. Administrative updates
  recompute it only when a field feeding the formula changed (boarding
  status or arrears); renaming a student must not touch their money.
*/
package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// REGISTRAR
// =============================================================================

type Registrar struct {
	store TxStore
}

func NewRegistrar(store TxStore) *Registrar {
	return &Registrar{store: store}
}

// NewStudent describes a registration request.
type NewStudent struct {
	AdmissionNumber string
	Name            string
	Phone           string
	Grade           string
	IsBoarding      bool
	UseBus          bool
}

// Register creates the student and initializes their opening balance in one
// transaction. Fails with ErrDuplicateAdmission or ErrFeeNotConfigured with
// no student created.
func (r *Registrar) Register(ctx context.Context, req NewStudent) (Student, error) {
	var created Student
	err := r.store.WithTx(ctx, func(s Store) error {
		if _, err := s.GetStudentByAdmission(ctx, req.AdmissionNumber); err == nil {
			return ErrDuplicateAdmission
		} else if !IsNotFound(err) {
			return err
		}

		student := Student{
			ID:              StudentID(uuid.NewString()),
			AdmissionNumber: req.AdmissionNumber,
			Name:            req.Name,
			Phone:           req.Phone,
			Grade:           req.Grade,
			IsBoarding:      req.IsBoarding,
			UseBus:          req.UseBus,
		}

		balance, err := computeOpeningBalance(ctx, s, student)
		if err != nil {
			return err
		}
		student.Balance = balance

		if err := s.CreateStudent(ctx, student); err != nil {
			return err
		}
		created = student
		return nil
	})
	if err != nil {
		return Student{}, err
	}
	return created, nil
}

// StudentUpdate carries the administrative fields an update may change.
// Nil pointers mean "leave as is".
type StudentUpdate struct {
	Name       *string
	Phone      *string
	Grade      *string
	IsBoarding *bool
	Arrears    *string // decimal string; arrears adjustments are an explicit administrative act
}

// Update applies an administrative update. When the update changes boarding
// status or arrears, the opening balance is recomputed in the same
// transaction so the two can never be observed out of step.
func (r *Registrar) Update(ctx context.Context, id StudentID, upd StudentUpdate) (Student, error) {
	var updated Student
	err := r.store.WithTx(ctx, func(s Store) error {
		student, err := s.GetStudent(ctx, id)
		if err != nil {
			return err
		}

		reinitialize := false
		if upd.Name != nil {
			student.Name = *upd.Name
		}
		if upd.Phone != nil {
			student.Phone = *upd.Phone
		}
		if upd.Grade != nil {
			student.Grade = *upd.Grade
		}
		if upd.IsBoarding != nil && *upd.IsBoarding != student.IsBoarding {
			student.IsBoarding = *upd.IsBoarding
			reinitialize = true
		}
		if upd.Arrears != nil {
			arrears, err := decimal.NewFromString(*upd.Arrears)
			if err != nil || arrears.IsNegative() {
				return fmt.Errorf("arrears %q: %w", *upd.Arrears, ErrInvalidAmount)
			}
			student.Arrears = arrears
			reinitialize = true
		}

		if reinitialize {
			balance, err := computeOpeningBalance(ctx, s, student)
			if err != nil {
				return err
			}
			student.Balance = balance
		}

		if err := s.SaveStudent(ctx, student); err != nil {
			return err
		}
		updated = student
		return nil
	})
	if err != nil {
		return Student{}, err
	}
	return updated, nil
}

// Remove deletes the student record.
func (r *Registrar) Remove(ctx context.Context, id StudentID) error {
	return r.store.WithTx(ctx, func(s Store) error {
		if _, err := s.GetStudent(ctx, id); err != nil {
			return err
		}
		return s.DeleteStudent(ctx, id)
	})
}
