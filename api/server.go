/*
server.go - Router construction

PURPOSE:
  Wires the chi router: middleware, CORS, and every route under /api.
  Handlers stay in handlers.go; this file is only the route table.

SEE ALSO:
  - handlers.go: Request handling
  - scheduler.go: Background term rollover and promotion
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter assembles the full HTTP surface over the handler.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/{id}", h.GetStudent)
			r.Put("/{id}", h.UpdateStudent)
			r.Delete("/{id}", h.DeleteStudent)
			r.Post("/{id}/initialize-balance", h.InitializeBalance)
			r.Get("/{id}/statement", h.GetStatement)
			r.Get("/{id}/payments", h.ListPayments)
			r.Put("/{id}/bus-balance", h.UpdateBusBalance)
		})

		r.Post("/payments", h.RecordPayment)
		r.Post("/bus-payments", h.RecordBusPayment)
		r.Post("/bus-assignments", h.AssignBus)

		r.Route("/bus-destinations", func(r chi.Router) {
			r.Get("/", h.ListDestinations)
			r.Post("/", h.CreateDestination)
		})

		r.Route("/fees", func(r chi.Router) {
			r.Post("/", h.CreateFee)
			r.Get("/{termID}", h.ListFeesForTerm)
		})

		r.Route("/boarding-fee", func(r chi.Router) {
			r.Get("/", h.GetBoardingFee)
			r.Put("/", h.SetBoardingFee)
		})

		r.Route("/terms", func(r chi.Router) {
			r.Get("/", h.ListTerms)
			r.Post("/", h.CreateTerm)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/rollover", h.TriggerRollover)
			r.Post("/promote", h.TriggerPromotion)
		})

		r.Post("/seed", h.SeedDemoData)
	})

	return r
}
