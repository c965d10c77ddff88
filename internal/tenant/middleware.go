package tenant

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// HeaderName carries the tenant id on every API request.
const HeaderName = "X-Tenant-ID"

// Middleware resolves the request tenant and stores it in the context.
type Middleware struct {
	Repo   Repository
	Logger *slog.Logger
}

// Require rejects requests without a resolvable, active tenant.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderName)
		if raw == "" {
			httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "missing "+HeaderName+" header")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "malformed tenant id")
			return
		}
		t, err := m.Repo.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				httpx.Problem(w, http.StatusNotFound, "Unknown Tenant", "tenant not found or inactive")
				return
			}
			if m.Logger != nil {
				m.Logger.Error("resolve tenant", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWith(r.Context(), t)))
	})
}
