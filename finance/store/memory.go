// Package store provides an in-memory finance.TxStore implementation,
// used by tests and development servers.
package store

import (
	"context"
	"sync"

	"github.com/shulepay/school-ledger/finance"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory holds all records in maps guarded by a single RWMutex.
//
// WithTx takes the write lock for the whole callback, so a bulk rollover or
// promotion pass is exclusive of every concurrent payment - the simplest
// arrangement that satisfies the engine's atomicity requirements. Rollback
// is a snapshot restore.
type Memory struct {
	mu sync.RWMutex

	students    map[finance.StudentID]finance.Student
	byAdmission map[string]finance.StudentID

	// fees keeps insertion order: FirstFeeForGrade must be deterministic
	// ("first configured wins"), which a map would not give us.
	fees     []finance.Fee
	boarding *finance.BoardingFee

	terms        map[finance.TermID]finance.Term
	destinations map[finance.DestinationID]finance.BusDestination

	payments    map[finance.StudentID][]finance.PaymentRecord
	busPayments map[finance.StudentID][]finance.BusPaymentRecord

	lastRolledOver   finance.TermID
	hasRolledOver    bool
	lastPromotedYear int
	hasPromotedYear  bool
}

func NewMemory() *Memory {
	return &Memory{
		students:     make(map[finance.StudentID]finance.Student),
		byAdmission:  make(map[string]finance.StudentID),
		terms:        make(map[finance.TermID]finance.Term),
		destinations: make(map[finance.DestinationID]finance.BusDestination),
		payments:     make(map[finance.StudentID][]finance.PaymentRecord),
		busPayments:  make(map[finance.StudentID][]finance.BusPaymentRecord),
	}
}

// =============================================================================
// STUDENTS
// =============================================================================

func (m *Memory) GetStudent(_ context.Context, id finance.StudentID) (finance.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getStudentLocked(id)
}

func (m *Memory) getStudentLocked(id finance.StudentID) (finance.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return finance.Student{}, finance.ErrStudentNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) GetStudentByAdmission(_ context.Context, admissionNumber string) (finance.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byAdmission[admissionNumber]
	if !ok {
		return finance.Student{}, finance.ErrStudentNotFound
	}
	return m.getStudentLocked(id)
}

func (m *Memory) ListStudents(_ context.Context) ([]finance.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listStudentsLocked()
}

func (m *Memory) listStudentsLocked() ([]finance.Student, error) {
	out := make([]finance.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (m *Memory) CreateStudent(_ context.Context, s finance.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createStudentLocked(s)
}

func (m *Memory) createStudentLocked(s finance.Student) error {
	if _, exists := m.byAdmission[s.AdmissionNumber]; exists {
		return finance.ErrDuplicateAdmission
	}
	m.students[s.ID] = s.Clone()
	m.byAdmission[s.AdmissionNumber] = s.ID
	return nil
}

func (m *Memory) SaveStudent(_ context.Context, s finance.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveStudentLocked(s)
}

func (m *Memory) saveStudentLocked(s finance.Student) error {
	if _, ok := m.students[s.ID]; !ok {
		return finance.ErrStudentNotFound
	}
	m.students[s.ID] = s.Clone()
	return nil
}

func (m *Memory) DeleteStudent(_ context.Context, id finance.StudentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteStudentLocked(id)
}

func (m *Memory) deleteStudentLocked(id finance.StudentID) error {
	s, ok := m.students[id]
	if !ok {
		return finance.ErrStudentNotFound
	}
	delete(m.byAdmission, s.AdmissionNumber)
	delete(m.students, id)
	return nil
}

// =============================================================================
// FEES
// =============================================================================

func (m *Memory) GetFee(_ context.Context, grade string, termID finance.TermID) (finance.Fee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getFeeLocked(grade, termID)
}

func (m *Memory) getFeeLocked(grade string, termID finance.TermID) (finance.Fee, error) {
	for _, f := range m.fees {
		if f.Grade == grade && f.TermID == termID {
			return f, nil
		}
	}
	return finance.Fee{}, finance.ErrFeeNotConfigured
}

func (m *Memory) FirstFeeForGrade(_ context.Context, grade string) (finance.Fee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.firstFeeForGradeLocked(grade)
}

func (m *Memory) firstFeeForGradeLocked(grade string) (finance.Fee, error) {
	for _, f := range m.fees {
		if f.Grade == grade {
			return f, nil
		}
	}
	return finance.Fee{}, finance.ErrFeeNotConfigured
}

func (m *Memory) ListFeesForTerm(_ context.Context, termID finance.TermID) ([]finance.Fee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []finance.Fee
	for _, f := range m.fees {
		if f.TermID == termID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *Memory) SaveFee(_ context.Context, f finance.Fee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveFeeLocked(f)
}

func (m *Memory) saveFeeLocked(f finance.Fee) error {
	for i, existing := range m.fees {
		if existing.ID == f.ID {
			m.fees[i] = f
			return nil
		}
	}
	m.fees = append(m.fees, f)
	return nil
}

func (m *Memory) GetBoardingFee(_ context.Context) (finance.BoardingFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBoardingFeeLocked()
}

func (m *Memory) getBoardingFeeLocked() (finance.BoardingFee, error) {
	if m.boarding == nil {
		return finance.BoardingFee{}, finance.ErrBoardingFeeNotConfigured
	}
	return *m.boarding, nil
}

func (m *Memory) SaveBoardingFee(_ context.Context, b finance.BoardingFee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boarding = &b
	return nil
}

// =============================================================================
// TERMS
// =============================================================================

func (m *Memory) GetTerm(_ context.Context, id finance.TermID) (finance.Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.terms[id]
	if !ok {
		return finance.Term{}, finance.ErrTermNotFound
	}
	return t, nil
}

func (m *Memory) ListTerms(_ context.Context) ([]finance.Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTermsLocked()
}

func (m *Memory) listTermsLocked() ([]finance.Term, error) {
	out := make([]finance.Term, 0, len(m.terms))
	for _, t := range m.terms {
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) SaveTerm(_ context.Context, t finance.Term) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terms[t.ID] = t
	return nil
}

// =============================================================================
// DESTINATIONS
// =============================================================================

func (m *Memory) GetDestination(_ context.Context, id finance.DestinationID) (finance.BusDestination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getDestinationLocked(id)
}

func (m *Memory) getDestinationLocked(id finance.DestinationID) (finance.BusDestination, error) {
	d, ok := m.destinations[id]
	if !ok {
		return finance.BusDestination{}, finance.ErrDestinationNotFound
	}
	return d, nil
}

func (m *Memory) ListDestinations(_ context.Context) ([]finance.BusDestination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]finance.BusDestination, 0, len(m.destinations))
	for _, d := range m.destinations {
		out = append(out, d)
	}
	return out, nil
}

func (m *Memory) SaveDestination(_ context.Context, d finance.BusDestination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destinations[d.ID] = d
	return nil
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

func (m *Memory) AppendPayment(_ context.Context, p finance.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendPaymentLocked(p)
}

func (m *Memory) appendPaymentLocked(p finance.PaymentRecord) error {
	m.payments[p.StudentID] = append(m.payments[p.StudentID], p)
	return nil
}

func (m *Memory) AppendBusPayment(_ context.Context, p finance.BusPaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendBusPaymentLocked(p)
}

func (m *Memory) appendBusPaymentLocked(p finance.BusPaymentRecord) error {
	m.busPayments[p.StudentID] = append(m.busPayments[p.StudentID], p)
	return nil
}

func (m *Memory) PaymentsByStudent(_ context.Context, id finance.StudentID) ([]finance.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]finance.PaymentRecord(nil), m.payments[id]...), nil
}

func (m *Memory) BusPaymentsByStudent(_ context.Context, id finance.StudentID) ([]finance.BusPaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]finance.BusPaymentRecord(nil), m.busPayments[id]...), nil
}

// =============================================================================
// WATERMARKS
// =============================================================================

func (m *Memory) LastRolledOverTerm(_ context.Context) (finance.TermID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRolledOver, m.hasRolledOver, nil
}

func (m *Memory) SetLastRolledOverTerm(_ context.Context, id finance.TermID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRolledOver = id
	m.hasRolledOver = true
	return nil
}

func (m *Memory) LastPromotedYear(_ context.Context) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPromotedYear, m.hasPromotedYear, nil
}

func (m *Memory) SetLastPromotedYear(_ context.Context, year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPromotedYear = year
	m.hasPromotedYear = true
	return nil
}

// =============================================================================
// TRANSACTIONS - Snapshot + rollback under one write lock
// =============================================================================

// WithTx executes fn while holding the write lock. On error the pre-call
// snapshot is restored, so partial batch writes are never visible.
func (m *Memory) WithTx(_ context.Context, fn func(finance.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	students     map[finance.StudentID]finance.Student
	byAdmission  map[string]finance.StudentID
	fees         []finance.Fee
	boarding     *finance.BoardingFee
	terms        map[finance.TermID]finance.Term
	destinations map[finance.DestinationID]finance.BusDestination
	payments     map[finance.StudentID][]finance.PaymentRecord
	busPayments  map[finance.StudentID][]finance.BusPaymentRecord

	lastRolledOver   finance.TermID
	hasRolledOver    bool
	lastPromotedYear int
	hasPromotedYear  bool
}

func (m *Memory) snapshot() memorySnapshot {
	snap := memorySnapshot{
		students:         make(map[finance.StudentID]finance.Student, len(m.students)),
		byAdmission:      make(map[string]finance.StudentID, len(m.byAdmission)),
		fees:             append([]finance.Fee(nil), m.fees...),
		terms:            make(map[finance.TermID]finance.Term, len(m.terms)),
		destinations:     make(map[finance.DestinationID]finance.BusDestination, len(m.destinations)),
		payments:         make(map[finance.StudentID][]finance.PaymentRecord, len(m.payments)),
		busPayments:      make(map[finance.StudentID][]finance.BusPaymentRecord, len(m.busPayments)),
		lastRolledOver:   m.lastRolledOver,
		hasRolledOver:    m.hasRolledOver,
		lastPromotedYear: m.lastPromotedYear,
		hasPromotedYear:  m.hasPromotedYear,
	}
	for k, v := range m.students {
		snap.students[k] = v.Clone()
	}
	for k, v := range m.byAdmission {
		snap.byAdmission[k] = v
	}
	if m.boarding != nil {
		b := *m.boarding
		snap.boarding = &b
	}
	for k, v := range m.terms {
		snap.terms[k] = v
	}
	for k, v := range m.destinations {
		snap.destinations[k] = v
	}
	for k, v := range m.payments {
		snap.payments[k] = append([]finance.PaymentRecord(nil), v...)
	}
	for k, v := range m.busPayments {
		snap.busPayments[k] = append([]finance.BusPaymentRecord(nil), v...)
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.students = snap.students
	m.byAdmission = snap.byAdmission
	m.fees = snap.fees
	m.boarding = snap.boarding
	m.terms = snap.terms
	m.destinations = snap.destinations
	m.payments = snap.payments
	m.busPayments = snap.busPayments
	m.lastRolledOver = snap.lastRolledOver
	m.hasRolledOver = snap.hasRolledOver
	m.lastPromotedYear = snap.lastPromotedYear
	m.hasPromotedYear = snap.hasPromotedYear
}

// txView is the Store handed to WithTx callbacks. The parent's lock is
// already held, so it calls the *Locked variants directly. Destinations and
// watermark writes go through the locked helpers below.
type txView struct {
	parent *Memory
}

func (tv *txView) GetStudent(_ context.Context, id finance.StudentID) (finance.Student, error) {
	return tv.parent.getStudentLocked(id)
}

func (tv *txView) GetStudentByAdmission(_ context.Context, admissionNumber string) (finance.Student, error) {
	id, ok := tv.parent.byAdmission[admissionNumber]
	if !ok {
		return finance.Student{}, finance.ErrStudentNotFound
	}
	return tv.parent.getStudentLocked(id)
}

func (tv *txView) ListStudents(_ context.Context) ([]finance.Student, error) {
	return tv.parent.listStudentsLocked()
}

func (tv *txView) CreateStudent(_ context.Context, s finance.Student) error {
	return tv.parent.createStudentLocked(s)
}

func (tv *txView) SaveStudent(_ context.Context, s finance.Student) error {
	return tv.parent.saveStudentLocked(s)
}

func (tv *txView) DeleteStudent(_ context.Context, id finance.StudentID) error {
	return tv.parent.deleteStudentLocked(id)
}

func (tv *txView) GetFee(_ context.Context, grade string, termID finance.TermID) (finance.Fee, error) {
	return tv.parent.getFeeLocked(grade, termID)
}

func (tv *txView) FirstFeeForGrade(_ context.Context, grade string) (finance.Fee, error) {
	return tv.parent.firstFeeForGradeLocked(grade)
}

func (tv *txView) ListFeesForTerm(_ context.Context, termID finance.TermID) ([]finance.Fee, error) {
	var out []finance.Fee
	for _, f := range tv.parent.fees {
		if f.TermID == termID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (tv *txView) SaveFee(_ context.Context, f finance.Fee) error {
	return tv.parent.saveFeeLocked(f)
}

func (tv *txView) GetBoardingFee(_ context.Context) (finance.BoardingFee, error) {
	return tv.parent.getBoardingFeeLocked()
}

func (tv *txView) SaveBoardingFee(_ context.Context, b finance.BoardingFee) error {
	tv.parent.boarding = &b
	return nil
}

func (tv *txView) GetTerm(_ context.Context, id finance.TermID) (finance.Term, error) {
	t, ok := tv.parent.terms[id]
	if !ok {
		return finance.Term{}, finance.ErrTermNotFound
	}
	return t, nil
}

func (tv *txView) ListTerms(_ context.Context) ([]finance.Term, error) {
	return tv.parent.listTermsLocked()
}

func (tv *txView) SaveTerm(_ context.Context, t finance.Term) error {
	tv.parent.terms[t.ID] = t
	return nil
}

func (tv *txView) GetDestination(_ context.Context, id finance.DestinationID) (finance.BusDestination, error) {
	return tv.parent.getDestinationLocked(id)
}

func (tv *txView) ListDestinations(_ context.Context) ([]finance.BusDestination, error) {
	out := make([]finance.BusDestination, 0, len(tv.parent.destinations))
	for _, d := range tv.parent.destinations {
		out = append(out, d)
	}
	return out, nil
}

func (tv *txView) SaveDestination(_ context.Context, d finance.BusDestination) error {
	tv.parent.destinations[d.ID] = d
	return nil
}

func (tv *txView) AppendPayment(_ context.Context, p finance.PaymentRecord) error {
	return tv.parent.appendPaymentLocked(p)
}

func (tv *txView) AppendBusPayment(_ context.Context, p finance.BusPaymentRecord) error {
	return tv.parent.appendBusPaymentLocked(p)
}

func (tv *txView) PaymentsByStudent(_ context.Context, id finance.StudentID) ([]finance.PaymentRecord, error) {
	return append([]finance.PaymentRecord(nil), tv.parent.payments[id]...), nil
}

func (tv *txView) BusPaymentsByStudent(_ context.Context, id finance.StudentID) ([]finance.BusPaymentRecord, error) {
	return append([]finance.BusPaymentRecord(nil), tv.parent.busPayments[id]...), nil
}

func (tv *txView) LastRolledOverTerm(_ context.Context) (finance.TermID, bool, error) {
	return tv.parent.lastRolledOver, tv.parent.hasRolledOver, nil
}

func (tv *txView) SetLastRolledOverTerm(_ context.Context, id finance.TermID) error {
	tv.parent.lastRolledOver = id
	tv.parent.hasRolledOver = true
	return nil
}

func (tv *txView) LastPromotedYear(_ context.Context) (int, bool, error) {
	return tv.parent.lastPromotedYear, tv.parent.hasPromotedYear, nil
}

func (tv *txView) SetLastPromotedYear(_ context.Context, year int) error {
	tv.parent.lastPromotedYear = year
	tv.parent.hasPromotedYear = true
	return nil
}
