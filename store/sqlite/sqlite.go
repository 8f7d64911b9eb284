/*
Package sqlite provides the SQLite-backed implementation of the finance
storage interfaces.

PURPOSE:
  Implements finance.Store and finance.TxStore on SQLite. The same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  students:             Current financial state per student (the only table
                        the engines mutate in place)
  fees, boarding_fee:   Fee configuration
  terms:                Term calendar
  bus_destinations:     Bus routes and charges
  student_destinations: Route assignments
  payments:             Immutable tuition ledger (INSERT only)
  bus_payments:         Immutable bus ledger (INSERT only)
  engine_marks:         Rollover/promotion watermarks

MONEY:
  Stored as decimal strings, never floats. shopspring/decimal round-trips
  through TEXT without precision loss.

CONCURRENCY:
  WithTx serializes writers behind a mutex and runs each callback in one
  database transaction, so a bulk rollover holds the write slot for its
  whole pass and a concurrent payment can neither interleave with it nor be
  lost. WAL mode keeps readers unblocked meanwhile.

APPEND-ONLY ENFORCEMENT:
  There are no UPDATE or DELETE statements against the ledger tables.
  Administrative corrections are a different surface with different rules;
  this store does not provide them.

SEE ALSO:
  - finance/store.go: Interface contracts
  - finance/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shulepay/school-ledger/finance"
)

const (
	markRolledOverTerm = "last_rolled_over_term"
	markPromotedYear   = "last_promoted_year"
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements finance.TxStore on SQLite.
type Store struct {
	queries
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer anyway, and a pooled
	// ":memory:" database would otherwise be a different database per
	// connection.
	db.SetMaxOpenConns(1)

	s := &Store{queries: queries{db: db}, db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		admission_number TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		phone TEXT,
		grade TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		arrears TEXT NOT NULL DEFAULT '0',
		prepayment TEXT NOT NULL DEFAULT '0',
		bus_balance TEXT NOT NULL DEFAULT '0',
		bus_arrears TEXT NOT NULL DEFAULT '0',
		is_boarding INTEGER NOT NULL DEFAULT 0,
		use_bus INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_students_grade ON students(grade);

	CREATE TABLE IF NOT EXISTS fees (
		id TEXT PRIMARY KEY,
		grade TEXT NOT NULL,
		term_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		UNIQUE (grade, term_id)
	);

	CREATE INDEX IF NOT EXISTS idx_fees_grade ON fees(grade);

	-- Single global row; id is pinned to 1.
	CREATE TABLE IF NOT EXISTS boarding_fee (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		extra_fee TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS terms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bus_destinations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		charge TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS student_destinations (
		student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		destination_id TEXT NOT NULL REFERENCES bus_destinations(id),
		PRIMARY KEY (student_id, destination_id)
	);

	-- Immutable tuition ledger (INSERT only)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		method TEXT NOT NULL,
		term_id TEXT NOT NULL,
		balance_after_payment TEXT NOT NULL,
		description TEXT,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payments_student ON payments(student_id, date);
	CREATE INDEX IF NOT EXISTS idx_payments_student_term ON payments(student_id, term_id);

	-- Immutable bus ledger (INSERT only)
	CREATE TABLE IF NOT EXISTS bus_payments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		term_id TEXT NOT NULL,
		destination_id TEXT,
		amount TEXT NOT NULL,
		paid_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bus_payments_student ON bus_payments(student_id, paid_at);

	-- Batch watermarks (rollover term, promotion year)
	CREATE TABLE IF NOT EXISTS engine_marks (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTx runs fn inside one database transaction. Writers are serialized by
// the mutex so a bulk pass is exclusive of concurrent per-student
// operations.
func (s *Store) WithTx(ctx context.Context, fn func(finance.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&queries{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// =============================================================================
// QUERIES - finance.Store implementation over *sql.DB or *sql.Tx
// =============================================================================

type queries struct {
	db dbtx
}

// ---------- students ----------

const studentColumns = `id, admission_number, name, phone, grade,
	balance, arrears, prepayment, bus_balance, bus_arrears, is_boarding, use_bus`

func (q *queries) GetStudent(ctx context.Context, id finance.StudentID) (finance.Student, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = ?`, string(id))
	return q.scanStudent(ctx, row)
}

func (q *queries) GetStudentByAdmission(ctx context.Context, admissionNumber string) (finance.Student, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE admission_number = ?`, admissionNumber)
	return q.scanStudent(ctx, row)
}

func (q *queries) scanStudent(ctx context.Context, row *sql.Row) (finance.Student, error) {
	var (
		s                                                    finance.Student
		phone                                                sql.NullString
		balance, arrears, prepayment, busBalance, busArrears string
		isBoarding, useBus                                   int
	)
	err := row.Scan(&s.ID, &s.AdmissionNumber, &s.Name, &phone, &s.Grade,
		&balance, &arrears, &prepayment, &busBalance, &busArrears, &isBoarding, &useBus)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Student{}, finance.ErrStudentNotFound
	}
	if err != nil {
		return finance.Student{}, err
	}
	s.Phone = phone.String
	s.Balance = finance.MustMoney(balance)
	s.Arrears = finance.MustMoney(arrears)
	s.Prepayment = finance.MustMoney(prepayment)
	s.BusBalance = finance.MustMoney(busBalance)
	s.BusArrears = finance.MustMoney(busArrears)
	s.IsBoarding = isBoarding != 0
	s.UseBus = useBus != 0

	dests, err := q.destinationsFor(ctx, s.ID)
	if err != nil {
		return finance.Student{}, err
	}
	s.Destinations = dests
	return s, nil
}

func (q *queries) destinationsFor(ctx context.Context, id finance.StudentID) ([]finance.DestinationID, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT destination_id FROM student_destinations WHERE student_id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []finance.DestinationID
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, finance.DestinationID(d))
	}
	return out, rows.Err()
}

func (q *queries) ListStudents(ctx context.Context) ([]finance.Student, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY admission_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []finance.Student
	for rows.Next() {
		var (
			s                                                    finance.Student
			phone                                                sql.NullString
			balance, arrears, prepayment, busBalance, busArrears string
			isBoarding, useBus                                   int
		)
		if err := rows.Scan(&s.ID, &s.AdmissionNumber, &s.Name, &phone, &s.Grade,
			&balance, &arrears, &prepayment, &busBalance, &busArrears, &isBoarding, &useBus); err != nil {
			return nil, err
		}
		s.Phone = phone.String
		s.Balance = finance.MustMoney(balance)
		s.Arrears = finance.MustMoney(arrears)
		s.Prepayment = finance.MustMoney(prepayment)
		s.BusBalance = finance.MustMoney(busBalance)
		s.BusArrears = finance.MustMoney(busArrears)
		s.IsBoarding = isBoarding != 0
		s.UseBus = useBus != 0
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range students {
		dests, err := q.destinationsFor(ctx, students[i].ID)
		if err != nil {
			return nil, err
		}
		students[i].Destinations = dests
	}
	return students, nil
}

func (q *queries) CreateStudent(ctx context.Context, s finance.Student) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO students (id, admission_number, name, phone, grade,
			balance, arrears, prepayment, bus_balance, bus_arrears, is_boarding, use_bus)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(s.ID), s.AdmissionNumber, s.Name, s.Phone, s.Grade,
		s.Balance.String(), s.Arrears.String(), s.Prepayment.String(),
		s.BusBalance.String(), s.BusArrears.String(), boolInt(s.IsBoarding), boolInt(s.UseBus))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: students.admission_number") {
			return finance.ErrDuplicateAdmission
		}
		return err
	}
	return q.saveDestinations(ctx, s)
}

func (q *queries) SaveStudent(ctx context.Context, s finance.Student) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE students SET name = ?, phone = ?, grade = ?,
			balance = ?, arrears = ?, prepayment = ?, bus_balance = ?, bus_arrears = ?,
			is_boarding = ?, use_bus = ?
		WHERE id = ?`,
		s.Name, s.Phone, s.Grade,
		s.Balance.String(), s.Arrears.String(), s.Prepayment.String(),
		s.BusBalance.String(), s.BusArrears.String(),
		boolInt(s.IsBoarding), boolInt(s.UseBus), string(s.ID))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return finance.ErrStudentNotFound
	}
	return q.saveDestinations(ctx, s)
}

func (q *queries) saveDestinations(ctx context.Context, s finance.Student) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM student_destinations WHERE student_id = ?`, string(s.ID)); err != nil {
		return err
	}
	for _, d := range s.Destinations {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO student_destinations (student_id, destination_id) VALUES (?, ?)`,
			string(s.ID), string(d)); err != nil {
			return err
		}
	}
	return nil
}

func (q *queries) DeleteStudent(ctx context.Context, id finance.StudentID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return finance.ErrStudentNotFound
	}
	return nil
}

// ---------- fees ----------

func (q *queries) GetFee(ctx context.Context, grade string, termID finance.TermID) (finance.Fee, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, grade, term_id, amount, is_paid FROM fees WHERE grade = ? AND term_id = ?`,
		grade, string(termID))
	return scanFee(row)
}

// FirstFeeForGrade returns the oldest configured fee for the grade. rowid
// order preserves configuration order, matching the memory store's
// insertion-order rule.
func (q *queries) FirstFeeForGrade(ctx context.Context, grade string) (finance.Fee, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, grade, term_id, amount, is_paid FROM fees WHERE grade = ? ORDER BY rowid LIMIT 1`,
		grade)
	return scanFee(row)
}

func scanFee(row *sql.Row) (finance.Fee, error) {
	var (
		f      finance.Fee
		amount string
		isPaid int
	)
	err := row.Scan(&f.ID, &f.Grade, &f.TermID, &amount, &isPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Fee{}, finance.ErrFeeNotConfigured
	}
	if err != nil {
		return finance.Fee{}, err
	}
	f.Amount = finance.MustMoney(amount)
	f.IsPaid = isPaid != 0
	return f, nil
}

func (q *queries) ListFeesForTerm(ctx context.Context, termID finance.TermID) ([]finance.Fee, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, grade, term_id, amount, is_paid FROM fees WHERE term_id = ? ORDER BY rowid`,
		string(termID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fees []finance.Fee
	for rows.Next() {
		var (
			f      finance.Fee
			amount string
			isPaid int
		)
		if err := rows.Scan(&f.ID, &f.Grade, &f.TermID, &amount, &isPaid); err != nil {
			return nil, err
		}
		f.Amount = finance.MustMoney(amount)
		f.IsPaid = isPaid != 0
		fees = append(fees, f)
	}
	return fees, rows.Err()
}

func (q *queries) SaveFee(ctx context.Context, f finance.Fee) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO fees (id, grade, term_id, amount, is_paid) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET grade = excluded.grade, term_id = excluded.term_id,
			amount = excluded.amount, is_paid = excluded.is_paid`,
		string(f.ID), f.Grade, string(f.TermID), f.Amount.String(), boolInt(f.IsPaid))
	return err
}

func (q *queries) GetBoardingFee(ctx context.Context) (finance.BoardingFee, error) {
	var extra string
	err := q.db.QueryRowContext(ctx, `SELECT extra_fee FROM boarding_fee WHERE id = 1`).Scan(&extra)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.BoardingFee{}, finance.ErrBoardingFeeNotConfigured
	}
	if err != nil {
		return finance.BoardingFee{}, err
	}
	return finance.BoardingFee{ExtraFee: finance.MustMoney(extra)}, nil
}

func (q *queries) SaveBoardingFee(ctx context.Context, b finance.BoardingFee) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO boarding_fee (id, extra_fee) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET extra_fee = excluded.extra_fee`,
		b.ExtraFee.String())
	return err
}

// ---------- terms ----------

func (q *queries) GetTerm(ctx context.Context, id finance.TermID) (finance.Term, error) {
	var (
		t          finance.Term
		start, end string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date FROM terms WHERE id = ?`, string(id)).
		Scan(&t.ID, &t.Name, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Term{}, finance.ErrTermNotFound
	}
	if err != nil {
		return finance.Term{}, err
	}
	if t.Start, err = finance.ParseDate(start); err != nil {
		return finance.Term{}, err
	}
	if t.End, err = finance.ParseDate(end); err != nil {
		return finance.Term{}, err
	}
	return t, nil
}

func (q *queries) ListTerms(ctx context.Context) ([]finance.Term, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, start_date, end_date FROM terms ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []finance.Term
	for rows.Next() {
		var (
			t          finance.Term
			start, end string
		)
		if err := rows.Scan(&t.ID, &t.Name, &start, &end); err != nil {
			return nil, err
		}
		if t.Start, err = finance.ParseDate(start); err != nil {
			return nil, err
		}
		if t.End, err = finance.ParseDate(end); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (q *queries) SaveTerm(ctx context.Context, t finance.Term) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO terms (id, name, start_date, end_date) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name,
			start_date = excluded.start_date, end_date = excluded.end_date`,
		string(t.ID), t.Name, t.Start.String(), t.End.String())
	return err
}

// ---------- destinations ----------

func (q *queries) GetDestination(ctx context.Context, id finance.DestinationID) (finance.BusDestination, error) {
	var (
		d      finance.BusDestination
		charge string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, charge FROM bus_destinations WHERE id = ?`, string(id)).
		Scan(&d.ID, &d.Name, &charge)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.BusDestination{}, finance.ErrDestinationNotFound
	}
	if err != nil {
		return finance.BusDestination{}, err
	}
	d.Charge = finance.MustMoney(charge)
	return d, nil
}

func (q *queries) ListDestinations(ctx context.Context) ([]finance.BusDestination, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name, charge FROM bus_destinations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dests []finance.BusDestination
	for rows.Next() {
		var (
			d      finance.BusDestination
			charge string
		)
		if err := rows.Scan(&d.ID, &d.Name, &charge); err != nil {
			return nil, err
		}
		d.Charge = finance.MustMoney(charge)
		dests = append(dests, d)
	}
	return dests, rows.Err()
}

func (q *queries) SaveDestination(ctx context.Context, d finance.BusDestination) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO bus_destinations (id, name, charge) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, charge = excluded.charge`,
		string(d.ID), d.Name, d.Charge.String())
	return err
}

// ---------- ledger entries ----------

func (q *queries) AppendPayment(ctx context.Context, p finance.PaymentRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO payments (id, student_id, amount, date, method, term_id,
			balance_after_payment, description, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), string(p.StudentID), p.Amount.String(), p.Date.String(),
		p.Method, string(p.TermID), p.BalanceAfterPayment.String(), p.Description, p.Notes)
	return err
}

func (q *queries) AppendBusPayment(ctx context.Context, p finance.BusPaymentRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO bus_payments (id, student_id, term_id, destination_id, amount, paid_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(p.ID), string(p.StudentID), string(p.TermID), string(p.DestinationID),
		p.Amount.String(), p.PaidAt.String())
	return err
}

func (q *queries) PaymentsByStudent(ctx context.Context, id finance.StudentID) ([]finance.PaymentRecord, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, student_id, amount, date, method, term_id, balance_after_payment, description, notes
		FROM payments WHERE student_id = ? ORDER BY date, rowid`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []finance.PaymentRecord
	for rows.Next() {
		var (
			p                  finance.PaymentRecord
			amount, date, bal  string
			description, notes sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.StudentID, &amount, &date, &p.Method, &p.TermID,
			&bal, &description, &notes); err != nil {
			return nil, err
		}
		p.Amount = finance.MustMoney(amount)
		if p.Date, err = finance.ParseDate(date); err != nil {
			return nil, err
		}
		p.BalanceAfterPayment = finance.MustMoney(bal)
		p.Description = description.String
		p.Notes = notes.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (q *queries) BusPaymentsByStudent(ctx context.Context, id finance.StudentID) ([]finance.BusPaymentRecord, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, student_id, term_id, destination_id, amount, paid_at
		FROM bus_payments WHERE student_id = ? ORDER BY paid_at, rowid`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []finance.BusPaymentRecord
	for rows.Next() {
		var (
			p              finance.BusPaymentRecord
			destination    sql.NullString
			amount, paidAt string
		)
		if err := rows.Scan(&p.ID, &p.StudentID, &p.TermID, &destination, &amount, &paidAt); err != nil {
			return nil, err
		}
		p.DestinationID = finance.DestinationID(destination.String)
		p.Amount = finance.MustMoney(amount)
		if p.PaidAt, err = finance.ParseDate(paidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ---------- watermarks ----------

func (q *queries) LastRolledOverTerm(ctx context.Context) (finance.TermID, bool, error) {
	v, ok, err := q.mark(ctx, markRolledOverTerm)
	return finance.TermID(v), ok, err
}

func (q *queries) SetLastRolledOverTerm(ctx context.Context, id finance.TermID) error {
	return q.setMark(ctx, markRolledOverTerm, string(id))
}

func (q *queries) LastPromotedYear(ctx context.Context) (int, bool, error) {
	v, ok, err := q.mark(ctx, markPromotedYear)
	if err != nil || !ok {
		return 0, ok, err
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt %s mark %q: %w", markPromotedYear, v, err)
	}
	return year, true, nil
}

func (q *queries) SetLastPromotedYear(ctx context.Context, year int) error {
	return q.setMark(ctx, markPromotedYear, strconv.Itoa(year))
}

func (q *queries) mark(ctx context.Context, name string) (string, bool, error) {
	var v string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM engine_marks WHERE name = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (q *queries) setMark(ctx context.Context, name, value string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO engine_marks (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`,
		name, value)
	return err
}

// ---------- helpers ----------

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
