package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/assets"
	"github.com/meridian-erp/meridian-erp/internal/accounting/automation"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/opening"
	"github.com/meridian-erp/meridian-erp/internal/accounting/periods"
	"github.com/meridian-erp/meridian-erp/internal/accounting/reports"
	"github.com/meridian-erp/meridian-erp/internal/accounting/rules"
	"github.com/meridian-erp/meridian-erp/internal/observability"
)

// RouterParams groups the handlers mounted under /api/v1.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AccountsHandler   *accounts.Handler
	PeriodsHandler    *periods.Handler
	JournalsHandler   *journals.Handler
	RulesHandler      *rules.Handler
	AutomationHandler *automation.Handler
	OpeningHandler    *opening.Handler
	ReportsHandler    *reports.Handler
	AssetsHandler     *assets.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi router with the full API surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: params.Logger, Config: params.Config}) {
		r.Use(mw)
	}
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware("api"))
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
		r.Route("/periods", params.PeriodsHandler.MountRoutes)
		r.Route("/journals", params.JournalsHandler.MountRoutes)
		r.Route("/posting-rules", params.RulesHandler.MountRoutes)
		r.Route("/events", params.AutomationHandler.MountRoutes)
		r.Route("/opening-balances", params.OpeningHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		r.Route("/assets", params.AssetsHandler.MountRoutes)
	})

	return r
}
