package statementhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/ledgerline/ledgerline/internal/tenant"
)

// MountRoutes registers statement endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/statements/overview", h.handleOverview)
	r.Get("/statements/balance-sheet", h.handleBalanceSheet)
	r.Get("/statements/profit-loss", h.handleProfitLoss)
	r.Get("/statements/tax-summary", h.handleTaxSummary)
	r.Get("/statements/expense-report", h.handleExpenseReport)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/statements/{report}/export.csv", h.handleCSV)
		gr.Get("/statements/{report}/export.pdf", h.handlePDF)
		gr.Get("/statements/{report}/insights", h.handleInsights)
		gr.Post("/statements/exports", h.handleEnqueueExport)
	})
}

func reportParam(r *http.Request) string {
	return chi.URLParam(r, "report")
}

func rateLimitKey(r *http.Request) (string, error) {
	if t, ok := tenant.FromContext(r.Context()); ok {
		return "tenant:" + t.ID.String(), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
