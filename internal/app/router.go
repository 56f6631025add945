package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	dashboardhttp "github.com/meridian-erp/meridian-erp/internal/dashboard/http"
	settlementhttp "github.com/meridian-erp/meridian-erp/internal/settlement/http"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SettlementHandler *settlementhttp.Handler
	DashboardHandler  *dashboardhttp.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.SettlementHandler != nil {
		params.SettlementHandler.MountRoutes(r)
	}
	if params.DashboardHandler != nil {
		params.DashboardHandler.MountRoutes(r)
	}

	return r
}
