/*
handlers.go - HTTP handlers over the finance engine

PURPOSE:
  Thin request/response plumbing: decode, delegate to the engine, encode.
  Business rules live in the finance package; handlers own only JSON
  shaping and status-code mapping.

ERROR MAPPING:
  finance.IsNotFound            -> 404
  finance.IsClientError         -> 400
  finance.IsPreconditionFailed  -> 409
  anything else                 -> 500

SEE ALSO:
  - server.go: Route wiring
  - dto.go: Wire shapes
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shulepay/school-ledger/finance"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler bundles the engine components over one shared store.
type Handler struct {
	Store finance.TxStore

	registrar   *finance.Registrar
	initializer *finance.BalanceInitializer
	payments    *finance.PaymentLedger
	bus         *finance.BusLedger
	rollover    *finance.RolloverEngine
	promotion   *finance.PromotionEngine
	statements  *finance.StatementBuilder
}

func NewHandler(store finance.TxStore) *Handler {
	return &Handler{
		Store:       store,
		registrar:   finance.NewRegistrar(store),
		initializer: finance.NewBalanceInitializer(store),
		payments:    finance.NewPaymentLedger(store),
		bus:         finance.NewBusLedger(store),
		rollover:    finance.NewRolloverEngine(store),
		promotion:   finance.NewPromotionEngine(store, finance.DefaultPromotionTable()),
		statements:  finance.NewStatementBuilder(store),
	}
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Store.ListStudents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]StudentDTO, 0, len(students))
	for _, s := range students {
		dtos = append(dtos, toStudentDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := finance.StudentID(chi.URLParam(r, "id"))
	student, err := h.Store.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(student))
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.AdmissionNumber == "" || req.Name == "" || req.Grade == "" {
		writeBadRequest(w, "admission_number, name and grade are required")
		return
	}

	student, err := h.registrar.Register(r.Context(), finance.NewStudent{
		AdmissionNumber: req.AdmissionNumber,
		Name:            req.Name,
		Phone:           req.Phone,
		Grade:           req.Grade,
		IsBoarding:      req.IsBoarding,
		UseBus:          req.UseBus,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(student))
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id := finance.StudentID(chi.URLParam(r, "id"))

	var req UpdateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	student, err := h.registrar.Update(r.Context(), id, finance.StudentUpdate{
		Name:       req.Name,
		Phone:      req.Phone,
		Grade:      req.Grade,
		IsBoarding: req.IsBoarding,
		Arrears:    req.Arrears,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(student))
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id := finance.StudentID(chi.URLParam(r, "id"))
	if err := h.registrar.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) InitializeBalance(w http.ResponseWriter, r *http.Request) {
	id := finance.StudentID(chi.URLParam(r, "id"))
	balance, err := h.initializer.InitializeBalance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id := finance.StudentID(chi.URLParam(r, "id"))
	termID := finance.TermID(r.URL.Query().Get("term_id"))

	stmt, err := h.statements.Build(r.Context(), id, termID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(stmt))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeBadRequest(w, "amount must be a decimal string")
		return
	}

	record, err := h.payments.RecordPayment(r.Context(),
		finance.StudentID(req.StudentID), amount, req.Method,
		finance.TermID(req.TermID), req.Description, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(record))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id := finance.StudentID(chi.URLParam(r, "id"))
	records, err := h.payments.Payments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]PaymentDTO, 0, len(records))
	for _, p := range records {
		dtos = append(dtos, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BUS HANDLERS
// =============================================================================

func (h *Handler) RecordBusPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordBusPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeBadRequest(w, "amount must be a decimal string")
		return
	}

	record, err := h.bus.RecordBusPayment(r.Context(),
		finance.StudentID(req.StudentID), finance.TermID(req.TermID),
		finance.DestinationID(req.DestinationID), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBusPaymentDTO(record))
}

func (h *Handler) UpdateBusBalance(w http.ResponseWriter, r *http.Request) {
	id := finance.StudentID(chi.URLParam(r, "id"))

	var req UpdateBusBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeBadRequest(w, "amount must be a decimal string")
		return
	}

	balance, err := h.bus.UpdateBusBalance(r.Context(), id, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"bus_balance": balance.String()})
}

func (h *Handler) AssignBus(w http.ResponseWriter, r *http.Request) {
	var req AssignBusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	student, err := h.bus.AssignDestination(r.Context(),
		finance.StudentID(req.StudentID), finance.DestinationID(req.DestinationID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(student))
}

func (h *Handler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	dests, err := h.Store.ListDestinations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]DestinationDTO, 0, len(dests))
	for _, d := range dests {
		dtos = append(dtos, toDestinationDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateDestination(w http.ResponseWriter, r *http.Request) {
	var req CreateDestinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	charge, err := decimal.NewFromString(req.Charge)
	if err != nil {
		writeBadRequest(w, "charge must be a decimal string")
		return
	}

	dest := finance.BusDestination{
		ID:     finance.DestinationID(uuid.NewString()),
		Name:   req.Name,
		Charge: charge,
	}
	if err := h.Store.SaveDestination(r.Context(), dest); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDestinationDTO(dest))
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

func (h *Handler) CreateFee(w http.ResponseWriter, r *http.Request) {
	var req CreateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeBadRequest(w, "amount must be a decimal string")
		return
	}
	if _, err := h.Store.GetTerm(r.Context(), finance.TermID(req.TermID)); err != nil {
		writeError(w, err)
		return
	}

	fee := finance.Fee{
		ID:     finance.FeeID(uuid.NewString()),
		Grade:  req.Grade,
		TermID: finance.TermID(req.TermID),
		Amount: amount,
	}
	if err := h.Store.SaveFee(r.Context(), fee); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeeDTO(fee))
}

func (h *Handler) ListFeesForTerm(w http.ResponseWriter, r *http.Request) {
	termID := finance.TermID(chi.URLParam(r, "termID"))
	fees, err := h.Store.ListFeesForTerm(r.Context(), termID)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]FeeDTO, 0, len(fees))
	for _, f := range fees {
		dtos = append(dtos, toFeeDTO(f))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetBoardingFee(w http.ResponseWriter, r *http.Request) {
	fee, err := h.Store.GetBoardingFee(r.Context())
	if finance.IsNotFound(err) {
		// Unconfigured reads fall back to the standard surcharge
		fee = finance.DefaultBoardingFee()
	} else if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoardingFeeDTO{ExtraFee: fee.ExtraFee.String()})
}

func (h *Handler) SetBoardingFee(w http.ResponseWriter, r *http.Request) {
	var req BoardingFeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	extra, err := decimal.NewFromString(req.ExtraFee)
	if err != nil {
		writeBadRequest(w, "extra_fee must be a decimal string")
		return
	}
	if err := h.Store.SaveBoardingFee(r.Context(), finance.BoardingFee{ExtraFee: extra}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoardingFeeDTO{ExtraFee: extra.String()})
}

func (h *Handler) CreateTerm(w http.ResponseWriter, r *http.Request) {
	var req CreateTermRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	start, err := finance.ParseDate(req.StartDate)
	if err != nil {
		writeBadRequest(w, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := finance.ParseDate(req.EndDate)
	if err != nil {
		writeBadRequest(w, "end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeBadRequest(w, "end_date is before start_date")
		return
	}

	term := finance.Term{
		ID:    finance.TermID(uuid.NewString()),
		Name:  req.Name,
		Start: start,
		End:   end,
	}
	if err := h.Store.SaveTerm(r.Context(), term); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTermDTO(term))
}

func (h *Handler) ListTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := h.Store.ListTerms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]TermDTO, 0, len(terms))
	for _, t := range terms {
		dtos = append(dtos, toTermDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS - Batch engines
// =============================================================================

func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	var req RolloverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	asOf, ok := parseAsOf(w, req.AsOf)
	if !ok {
		return
	}

	report, err := h.rollover.RolloverTerm(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("[Rollover] closed=%s opened=%s processed=%d missing_fee=%d",
		report.ClosedTermID, report.OpenedTermID, report.StudentsProcessed, len(report.MissingFee))
	writeJSON(w, http.StatusOK, toRolloverReportDTO(report))
}

func (h *Handler) TriggerPromotion(w http.ResponseWriter, r *http.Request) {
	var req PromoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	asOf, ok := parseAsOf(w, req.AsOf)
	if !ok {
		return
	}

	report, err := h.promotion.PromoteStudents(r.Context(), asOf, req.Force)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("[Promotion] year=%d promoted=%d unpromotable=%d skipped=%v",
		report.Year, report.Promoted, len(report.Unpromotable), report.Skipped)
	writeJSON(w, http.StatusOK, toPromotionReportDTO(report))
}

func parseAsOf(w http.ResponseWriter, raw string) (finance.Date, bool) {
	if raw == "" {
		return finance.Today(), true
	}
	asOf, err := finance.ParseDate(raw)
	if err != nil {
		writeBadRequest(w, "as_of must be YYYY-MM-DD")
		return finance.Date{}, false
	}
	return asOf, true
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case finance.IsNotFound(err):
		status = http.StatusNotFound
	case finance.IsClientError(err):
		status = http.StatusBadRequest
	case finance.IsPreconditionFailed(err):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("[API] Internal error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
