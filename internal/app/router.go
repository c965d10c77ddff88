package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerline/ledgerline/internal/coa"
	"github.com/ledgerline/ledgerline/internal/notify"
	statementhttp "github.com/ledgerline/ledgerline/internal/statements/http"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	TenantMiddleware  tenant.Middleware
	StatementsHandler *statementhttp.Handler
	COAHandler        *coa.Handler
	NotifyHandler     *notify.Handler
}

// NewRouter constructs the chi.Router with application defaults.
// Everything under /api is tenant scoped.
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

	r.Route("/api", func(api chi.Router) {
		api.Use(params.TenantMiddleware.Require)
		if params.StatementsHandler != nil {
			params.StatementsHandler.MountRoutes(api)
		}
		if params.COAHandler != nil {
			params.COAHandler.MountRoutes(api)
		}
		if params.NotifyHandler != nil {
			params.NotifyHandler.MountRoutes(api)
		}
	})

	return r
}
