package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/qayd-app/qayd/internal/integration"
	"github.com/qayd-app/qayd/internal/invoicing"
	"github.com/qayd-app/qayd/internal/ledger/accounts"
	"github.com/qayd-app/qayd/internal/ledger/journals"
	"github.com/qayd-app/qayd/internal/ledger/periods"
	"github.com/qayd-app/qayd/internal/ledger/reports"
	"github.com/qayd-app/qayd/internal/observability"
	"github.com/qayd-app/qayd/internal/shared"
	"github.com/qayd-app/qayd/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AccountsHandler  *accounts.Handler
	JournalsHandler  *journals.Handler
	PeriodsHandler   *periods.Handler
	InvoicesHandler  *invoicing.Handler
	ReportsHandler   *reports.Handler
	OrdersHandler    *integration.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router. Everything under /api requires tenant
// identity headers; health and metrics stay open for probes and scrapers.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(shared.IdentityMiddleware)
		if params.AccountsHandler != nil {
			api.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.JournalsHandler != nil {
			api.Route("/journal-entries", params.JournalsHandler.MountRoutes)
		}
		if params.PeriodsHandler != nil {
			api.Route("/fiscal-periods", params.PeriodsHandler.MountRoutes)
		}
		if params.InvoicesHandler != nil {
			api.Route("/invoices", params.InvoicesHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			api.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.OrdersHandler != nil {
			api.Route("/orders", params.OrdersHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
