package coa

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// Handler serves the chart of accounts API.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the chart of accounts HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers chart of accounts endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/coa/tree", h.tree)
	r.Post("/coa/groups", h.createGroup)
	r.Post("/coa/accounts", h.createAccount)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	tree, err := h.service.Tree(r.Context(), t.ID)
	if err != nil {
		h.respondError(w, "load coa tree", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tree": tree})
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	var in CreateGroupInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	group, err := h.service.CreateGroup(r.Context(), t.ID, in)
	if err != nil {
		h.respondError(w, "create group", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, group)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	var in CreateAccountInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	account, err := h.service.CreateAccount(r.Context(), t.ID, in)
	if err != nil {
		h.respondError(w, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
