package reports

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the report endpoints. Report builds are the most
// expensive queries in the system, so they carry their own rate limit on top
// of the app-wide one.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(httprate.LimitByIP(30, time.Minute))
	r.Get("/trial-balance", h.TrialBalance)
	r.Get("/income-statement", h.IncomeStatement)
	r.Get("/balance-sheet", h.BalanceSheet)
}
