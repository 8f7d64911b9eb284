/*
dto.go - JSON request/response shapes

PURPOSE:
  Decouples the HTTP wire format from the finance types. Money travels as
  decimal strings ("12500.00"), never as JSON numbers - float64 decoding
  would reintroduce exactly the precision loss the engine avoids.

CONVENTIONS:
  - snake_case field names
  - dates as YYYY-MM-DD
  - zero-value money serialized as "0"
*/
package api

import (
	"github.com/shulepay/school-ledger/finance"
)

// =============================================================================
// STUDENT DTOs
// =============================================================================

type StudentDTO struct {
	ID              string   `json:"id"`
	AdmissionNumber string   `json:"admission_number"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone,omitempty"`
	Grade           string   `json:"grade"`
	Balance         string   `json:"balance"`
	Arrears         string   `json:"arrears"`
	Prepayment      string   `json:"prepayment"`
	BusBalance      string   `json:"bus_balance"`
	BusArrears      string   `json:"bus_arrears"`
	IsBoarding      bool     `json:"is_boarding"`
	UseBus          bool     `json:"use_bus"`
	Destinations    []string `json:"destinations,omitempty"`
}

func toStudentDTO(s finance.Student) StudentDTO {
	dto := StudentDTO{
		ID:              string(s.ID),
		AdmissionNumber: s.AdmissionNumber,
		Name:            s.Name,
		Phone:           s.Phone,
		Grade:           s.Grade,
		Balance:         s.Balance.String(),
		Arrears:         s.Arrears.String(),
		Prepayment:      s.Prepayment.String(),
		BusBalance:      s.BusBalance.String(),
		BusArrears:      s.BusArrears.String(),
		IsBoarding:      s.IsBoarding,
		UseBus:          s.UseBus,
	}
	for _, d := range s.Destinations {
		dto.Destinations = append(dto.Destinations, string(d))
	}
	return dto
}

type CreateStudentRequest struct {
	AdmissionNumber string `json:"admission_number"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Grade           string `json:"grade"`
	IsBoarding      bool   `json:"is_boarding"`
	UseBus          bool   `json:"use_bus"`
}

type UpdateStudentRequest struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Grade      *string `json:"grade"`
	IsBoarding *bool   `json:"is_boarding"`
	Arrears    *string `json:"arrears"`
}

// =============================================================================
// PAYMENT DTOs
// =============================================================================

type PaymentDTO struct {
	ID                  string `json:"id"`
	StudentID           string `json:"student_id"`
	Amount              string `json:"amount"`
	Date                string `json:"date"`
	Method              string `json:"method"`
	TermID              string `json:"term_id"`
	BalanceAfterPayment string `json:"balance_after_payment"`
	Description         string `json:"description,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

func toPaymentDTO(p finance.PaymentRecord) PaymentDTO {
	return PaymentDTO{
		ID:                  string(p.ID),
		StudentID:           string(p.StudentID),
		Amount:              p.Amount.String(),
		Date:                p.Date.String(),
		Method:              p.Method,
		TermID:              string(p.TermID),
		BalanceAfterPayment: p.BalanceAfterPayment.String(),
		Description:         p.Description,
		Notes:               p.Notes,
	}
}

type RecordPaymentRequest struct {
	StudentID   string `json:"student_id"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	TermID      string `json:"term_id"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

type BusPaymentDTO struct {
	ID            string `json:"id"`
	StudentID     string `json:"student_id"`
	TermID        string `json:"term_id"`
	DestinationID string `json:"destination_id,omitempty"`
	Amount        string `json:"amount"`
	PaidAt        string `json:"paid_at"`
}

func toBusPaymentDTO(p finance.BusPaymentRecord) BusPaymentDTO {
	return BusPaymentDTO{
		ID:            string(p.ID),
		StudentID:     string(p.StudentID),
		TermID:        string(p.TermID),
		DestinationID: string(p.DestinationID),
		Amount:        p.Amount.String(),
		PaidAt:        p.PaidAt.String(),
	}
}

type RecordBusPaymentRequest struct {
	StudentID     string `json:"student_id"`
	TermID        string `json:"term_id"`
	DestinationID string `json:"destination_id"`
	Amount        string `json:"amount"`
}

type UpdateBusBalanceRequest struct {
	Amount string `json:"amount"`
}

type AssignBusRequest struct {
	StudentID     string `json:"student_id"`
	DestinationID string `json:"destination_id"`
}

// =============================================================================
// CONFIGURATION DTOs
// =============================================================================

type FeeDTO struct {
	ID     string `json:"id"`
	Grade  string `json:"grade"`
	TermID string `json:"term_id"`
	Amount string `json:"amount"`
	IsPaid bool   `json:"is_paid"`
}

func toFeeDTO(f finance.Fee) FeeDTO {
	return FeeDTO{
		ID:     string(f.ID),
		Grade:  f.Grade,
		TermID: string(f.TermID),
		Amount: f.Amount.String(),
		IsPaid: f.IsPaid,
	}
}

type CreateFeeRequest struct {
	Grade  string `json:"grade"`
	TermID string `json:"term_id"`
	Amount string `json:"amount"`
}

type BoardingFeeDTO struct {
	ExtraFee string `json:"extra_fee"`
}

type TermDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func toTermDTO(t finance.Term) TermDTO {
	return TermDTO{
		ID:        string(t.ID),
		Name:      t.Name,
		StartDate: t.Start.String(),
		EndDate:   t.End.String(),
	}
}

type CreateTermRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type DestinationDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Charge string `json:"charge"`
}

func toDestinationDTO(d finance.BusDestination) DestinationDTO {
	return DestinationDTO{ID: string(d.ID), Name: d.Name, Charge: d.Charge.String()}
}

type CreateDestinationRequest struct {
	Name   string `json:"name"`
	Charge string `json:"charge"`
}

// =============================================================================
// BATCH DTOs
// =============================================================================

type RolloverRequest struct {
	AsOf string `json:"as_of"` // YYYY-MM-DD; empty means today
}

type RolloverReportDTO struct {
	NoCurrentTerm     bool            `json:"no_current_term,omitempty"`
	ClosedTermID      string          `json:"closed_term_id,omitempty"`
	OpenedTermID      string          `json:"opened_term_id,omitempty"`
	StudentsProcessed int             `json:"students_processed"`
	MissingFee        []MissingFeeDTO `json:"missing_fee,omitempty"`
}

type MissingFeeDTO struct {
	StudentID string `json:"student_id"`
	Grade     string `json:"grade"`
}

func toRolloverReportDTO(r finance.RolloverReport) RolloverReportDTO {
	dto := RolloverReportDTO{
		NoCurrentTerm:     r.NoCurrentTerm,
		ClosedTermID:      string(r.ClosedTermID),
		OpenedTermID:      string(r.OpenedTermID),
		StudentsProcessed: r.StudentsProcessed,
	}
	for _, a := range r.MissingFee {
		dto.MissingFee = append(dto.MissingFee, MissingFeeDTO{
			StudentID: string(a.StudentID),
			Grade:     a.Grade,
		})
	}
	return dto
}

type PromoteRequest struct {
	AsOf  string `json:"as_of"` // YYYY-MM-DD; empty means today
	Force bool   `json:"force"`
}

type PromotionReportDTO struct {
	Skipped      bool              `json:"skipped,omitempty"`
	Year         int               `json:"year"`
	Promoted     int               `json:"promoted"`
	Unpromotable []UnpromotableDTO `json:"unpromotable,omitempty"`
}

type UnpromotableDTO struct {
	StudentID string `json:"student_id"`
	Grade     string `json:"grade"`
}

func toPromotionReportDTO(r finance.PromotionReport) PromotionReportDTO {
	dto := PromotionReportDTO{Skipped: r.Skipped, Year: r.Year, Promoted: r.Promoted}
	for _, u := range r.Unpromotable {
		dto.Unpromotable = append(dto.Unpromotable, UnpromotableDTO{
			StudentID: string(u.StudentID),
			Grade:     u.Grade,
		})
	}
	return dto
}

// =============================================================================
// STATEMENT DTOs
// =============================================================================

type StatementDTO struct {
	StudentID       string              `json:"student_id"`
	AdmissionNumber string              `json:"admission_number"`
	TermID          string              `json:"term_id,omitempty"`
	Entries         []StatementEntryDTO `json:"entries"`
	TotalPaid       string              `json:"total_paid"`
	Balance         string              `json:"balance"`
	Arrears         string              `json:"arrears"`
	BusBalance      string              `json:"bus_balance"`
	BusArrears      string              `json:"bus_arrears"`
}

type StatementEntryDTO struct {
	PaymentID    string `json:"payment_id"`
	Date         string `json:"date"`
	Amount       string `json:"amount"`
	Method       string `json:"method"`
	TermID       string `json:"term_id"`
	BalanceAfter string `json:"balance_after"`
	Description  string `json:"description,omitempty"`
}

func toStatementDTO(s finance.Statement) StatementDTO {
	dto := StatementDTO{
		StudentID:       string(s.StudentID),
		AdmissionNumber: s.AdmissionNumber,
		TermID:          string(s.TermID),
		Entries:         []StatementEntryDTO{},
		TotalPaid:       s.TotalPaid.String(),
		Balance:         s.Balance.String(),
		Arrears:         s.Arrears.String(),
		BusBalance:      s.BusBalance.String(),
		BusArrears:      s.BusArrears.String(),
	}
	for _, e := range s.Entries {
		dto.Entries = append(dto.Entries, StatementEntryDTO{
			PaymentID:    string(e.PaymentID),
			Date:         e.Date.String(),
			Amount:       e.Amount.String(),
			Method:       e.Method,
			TermID:       string(e.TermID),
			BalanceAfter: e.BalanceAfter.String(),
			Description:  e.Description,
		})
	}
	return dto
}
