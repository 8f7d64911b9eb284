/*
seed.go - Demo data loader for testing and demonstrations

PURPOSE:

	Populates the store with a realistic small school: two terms, fees for
	every grade, bus destinations, a boarding surcharge and a handful of
	students per grade. Gives the frontend something to render and gives
	manual testing a known starting state.

WHAT IT CREATES:

	terms:        Term 1 2026 (Jan-Apr), Term 2 2026 (May-Aug)
	grades/fees:  baby class through grade 4, per-term fee rows
	destinations: three bus routes with per-term charges
	students:     two per grade, one boarder and one bus rider among them

NOTE:

	Seeding does not reset existing data; it layers demo records on top.
	Only use in development/demo environments.

SEE ALSO:
  - server.go: POST /api/seed
  - finance/registry.go: Registrar used for student creation
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/shulepay/school-ledger/finance"
)

// =============================================================================
// SEED HANDLER
// =============================================================================

// SeedDemoData loads the demo dataset.
func (h *Handler) SeedDemoData(w http.ResponseWriter, r *http.Request) {
	summary, err := loadDemoData(r.Context(), h)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func loadDemoData(ctx context.Context, h *Handler) (map[string]int, error) {
	term1 := finance.Term{
		ID:    finance.TermID(uuid.NewString()),
		Name:  "Term 1 2026",
		Start: finance.NewDate(2026, 1, 5),
		End:   finance.NewDate(2026, 4, 3),
	}
	term2 := finance.Term{
		ID:    finance.TermID(uuid.NewString()),
		Name:  "Term 2 2026",
		Start: finance.NewDate(2026, 5, 4),
		End:   finance.NewDate(2026, 8, 7),
	}
	for _, term := range []finance.Term{term1, term2} {
		if err := h.Store.SaveTerm(ctx, term); err != nil {
			return nil, err
		}
	}

	termFees := []struct {
		grade  string
		amount string
	}{
		{"baby class", "6500"},
		{"pp1", "7500"},
		{"pp2", "6500"},
		{"1", "7000"},
		{"2", "5000"},
		{"3", "6500"},
		{"4", "6500"},
	}
	feeCount := 0
	for _, term := range []finance.Term{term1, term2} {
		for _, tf := range termFees {
			fee := finance.Fee{
				ID:     finance.FeeID(uuid.NewString()),
				Grade:  tf.grade,
				TermID: term.ID,
				Amount: finance.MustMoney(tf.amount),
			}
			if err := h.Store.SaveFee(ctx, fee); err != nil {
				return nil, err
			}
			feeCount++
		}
	}

	if err := h.Store.SaveBoardingFee(ctx, finance.BoardingFee{ExtraFee: finance.MustMoney("4500")}); err != nil {
		return nil, err
	}

	destinations := []finance.BusDestination{
		{ID: finance.DestinationID(uuid.NewString()), Name: "Marangetit", Charge: finance.MustMoney("1200")},
		{ID: finance.DestinationID(uuid.NewString()), Name: "Olesoi", Charge: finance.MustMoney("1288")},
		{ID: finance.DestinationID(uuid.NewString()), Name: "Sigor", Charge: finance.MustMoney("1000")},
	}
	for _, dest := range destinations {
		if err := h.Store.SaveDestination(ctx, dest); err != nil {
			return nil, err
		}
	}

	registrar := finance.NewRegistrar(h.Store)
	bus := finance.NewBusLedger(h.Store)

	studentCount := 0
	for gi, tf := range termFees {
		for i := 1; i <= 2; i++ {
			req := finance.NewStudent{
				AdmissionNumber: fmt.Sprintf("ADM%d%02d", gi+1, i),
				Name:            fmt.Sprintf("Demo Student %d-%d", gi+1, i),
				Phone:           fmt.Sprintf("07200%d%03d", gi+1, i),
				Grade:           tf.grade,
				IsBoarding:      i == 1 && gi%2 == 0,
			}
			student, err := registrar.Register(ctx, req)
			if err != nil {
				return nil, err
			}
			if i == 2 {
				dest := destinations[gi%len(destinations)]
				if _, err := bus.AssignDestination(ctx, student.ID, dest.ID); err != nil {
					return nil, err
				}
			}
			studentCount++
		}
	}

	return map[string]int{
		"terms":        2,
		"fees":         feeCount,
		"destinations": len(destinations),
		"students":     studentCount,
	}, nil
}
