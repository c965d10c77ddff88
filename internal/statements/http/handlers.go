// Package statementhttp exposes the financial statement API: JSON
// statement endpoints, synchronous CSV/PDF downloads and queued
// exports.
package statementhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/statements"
	"github.com/ledgerline/ledgerline/internal/statements/export"
	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

const requestTimeout = 10 * time.Second

const dateLayout = "2006-01-02"

// Service contracts consumed by the handler.
type (
	BalanceSheetService interface {
		Build(ctx context.Context, tenantID uuid.UUID, f statements.BalanceSheetFilters) (statements.BalanceSheetReport, error)
	}
	ProfitLossService interface {
		Build(ctx context.Context, tenantID uuid.UUID, f statements.ProfitLossFilters) (statements.ProfitLossReport, error)
	}
	TaxSummaryService interface {
		Build(ctx context.Context, tenantID uuid.UUID, f statements.ProfitLossFilters) (statements.TaxSummaryReport, error)
	}
	ExpenseReportService interface {
		Build(ctx context.Context, tenantID uuid.UUID, f statements.ProfitLossFilters) (statements.ExpenseReport, error)
	}
)

// PDFService renders a statement to PDF bytes.
type PDFService interface {
	RenderStatement(ctx context.Context, st statements.Statement) ([]byte, error)
}

// ExportEnqueuer submits asynchronous export jobs.
type ExportEnqueuer interface {
	EnqueueStatementExport(ctx context.Context, payload jobs.StatementExportPayload) (*asynq.TaskInfo, error)
}

// InsightsService generates narrative commentary for a statement.
type InsightsService interface {
	Commentary(ctx context.Context, st statements.Statement) (string, error)
}

// Handler coordinates HTTP requests for financial statements.
type Handler struct {
	logger        *slog.Logger
	balanceSheet  BalanceSheetService
	profitLoss    ProfitLossService
	taxSummary    TaxSummaryService
	expenseReport ExpenseReportService
	pdf           PDFService
	enqueuer      ExportEnqueuer
	insights      InsightsService
	now           func() time.Time
}

// NewHandler constructs the statements HTTP handler.
func NewHandler(logger *slog.Logger, bs BalanceSheetService, pl ProfitLossService, tax TaxSummaryService, expense ExpenseReportService, pdf PDFService, enqueuer ExportEnqueuer, insights InsightsService) *Handler {
	return &Handler{
		logger:        logger,
		balanceSheet:  bs,
		profitLoss:    pl,
		taxSummary:    tax,
		expenseReport: expense,
		pdf:           pdf,
		enqueuer:      enqueuer,
		insights:      insights,
		now:           time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	asOf, err := h.parseAsOf(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.balanceSheet.Build(ctx, t.ID, statements.BalanceSheetFilters{AsOf: asOf})
	if err != nil {
		h.respondError(w, "build balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	filters, err := h.parsePeriod(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.profitLoss.Build(ctx, t.ID, filters)
	if err != nil {
		h.respondError(w, "build profit and loss", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleTaxSummary(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	filters, err := h.parsePeriod(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.taxSummary.Build(ctx, t.ID, filters)
	if err != nil {
		h.respondError(w, "build tax summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleExpenseReport(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	filters, err := h.parsePeriod(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.expenseReport.Build(ctx, t.ID, filters)
	if err != nil {
		h.respondError(w, "build expense report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// handleOverview loads the balance sheet and profit and loss for the
// same request concurrently.
func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	asOf, err := h.parseAsOf(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := h.parsePeriod(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		bs statements.BalanceSheetReport
		pl statements.ProfitLossReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, err := h.balanceSheet.Build(gctx, t.ID, statements.BalanceSheetFilters{AsOf: asOf})
		if err != nil {
			return err
		}
		bs = report
		return nil
	})
	g.Go(func() error {
		report, err := h.profitLoss.Build(gctx, t.ID, period)
		if err != nil {
			return err
		}
		pl = report
		return nil
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, "build overview", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"balanceSheet": bs,
		"profitLoss":   pl,
	})
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	st, slug, ok := h.statementForRequest(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteStatementCSV(&buf, st); err != nil {
		h.respondError(w, "write csv", err)
		return
	}

	httpx.Attachment(w, slug+".csv", "text/csv; charset=utf-8", buf.Len())
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("stream csv", slog.Any("error", err))
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Unavailable", "pdf renderer not configured")
		return
	}
	st, slug, ok := h.statementForRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.pdf.RenderStatement(ctx, st)
	if err != nil {
		h.respondError(w, "render pdf", err)
		return
	}

	httpx.Attachment(w, slug+".pdf", "application/pdf", len(data))
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("stream pdf", slog.Any("error", err))
	}
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	if h.insights == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Insights Unavailable", "insights provider not configured")
		return
	}
	st, _, ok := h.statementForRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	commentary, err := h.insights.Commentary(ctx, st)
	if err != nil {
		h.respondError(w, "generate insights", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"statement":  st.Title,
		"period":     st.Period,
		"commentary": commentary,
	})
}

type exportRequest struct {
	Report string `json:"report"`
	Format string `json:"format"`
	AsOf   string `json:"asOf"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (h *Handler) handleEnqueueExport(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return
	}
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Exports Unavailable", "job queue not configured")
		return
	}

	var req exportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if !statements.KnownReport(req.Report) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fmt.Sprintf("unknown report %q", req.Report))
		return
	}
	format := req.Format
	if format == "" {
		format = jobs.FormatCSV
	}
	if format != jobs.FormatCSV && format != jobs.FormatPDF {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fmt.Sprintf("unknown format %q", req.Format))
		return
	}

	payload := jobs.StatementExportPayload{
		JobID:    uuid.New(),
		TenantID: t.ID,
		Report:   req.Report,
		Format:   format,
	}
	var err error
	if req.Report == statements.ReportBalanceSheet {
		payload.AsOf, err = h.parseDate(req.AsOf, h.today())
	} else {
		payload.From, payload.To, err = h.parseRange(req.From, req.To)
	}
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if _, err := h.enqueuer.EnqueueStatementExport(r.Context(), payload); err != nil {
		h.respondError(w, "enqueue export", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"jobId": payload.JobID})
}

// statementForRequest resolves the {report} URL parameter, builds the
// statement and writes the error response itself on failure.
func (h *Handler) statementForRequest(w http.ResponseWriter, r *http.Request) (statements.Statement, string, bool) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", "")
		return statements.Statement{}, "", false
	}
	slug := reportParam(r)
	if !statements.KnownReport(slug) {
		httpx.Problem(w, http.StatusNotFound, "Unknown Report", fmt.Sprintf("no report named %q", slug))
		return statements.Statement{}, "", false
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		st  statements.Statement
		err error
	)
	switch slug {
	case statements.ReportBalanceSheet:
		var asOf time.Time
		asOf, err = h.parseAsOf(r)
		if err == nil {
			var report statements.BalanceSheetReport
			report, err = h.balanceSheet.Build(ctx, t.ID, statements.BalanceSheetFilters{AsOf: asOf})
			st = report.Statement()
		}
	case statements.ReportProfitLoss:
		var filters statements.ProfitLossFilters
		filters, err = h.parsePeriod(r)
		if err == nil {
			var report statements.ProfitLossReport
			report, err = h.profitLoss.Build(ctx, t.ID, filters)
			st = report.Statement()
		}
	case statements.ReportTaxSummary:
		var filters statements.ProfitLossFilters
		filters, err = h.parsePeriod(r)
		if err == nil {
			var report statements.TaxSummaryReport
			report, err = h.taxSummary.Build(ctx, t.ID, filters)
			st = report.Statement()
		}
	case statements.ReportExpenseReport:
		var filters statements.ProfitLossFilters
		filters, err = h.parsePeriod(r)
		if err == nil {
			var report statements.ExpenseReport
			report, err = h.expenseReport.Build(ctx, t.ID, filters)
			st = report.Statement()
		}
	}
	if err != nil {
		h.respondError(w, "build "+slug, err)
		return statements.Statement{}, "", false
	}
	return st, slug, true
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	var integrity *hierarchy.IntegrityError
	switch {
	case errors.Is(err, statements.ErrInvalidFilter):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &integrity):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Data Integrity", integrity.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) today() time.Time {
	now := h.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (h *Handler) parseAsOf(r *http.Request) (time.Time, error) {
	return h.parseDate(r.URL.Query().Get("as_of"), h.today())
}

func (h *Handler) parseDate(value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q, want YYYY-MM-DD", value)
	}
	return parsed, nil
}

func (h *Handler) parsePeriod(r *http.Request) (statements.ProfitLossFilters, error) {
	today := h.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	from, err := h.parseDate(r.URL.Query().Get("from"), monthStart)
	if err != nil {
		return statements.ProfitLossFilters{}, err
	}
	to, err := h.parseDate(r.URL.Query().Get("to"), today)
	if err != nil {
		return statements.ProfitLossFilters{}, err
	}
	return statements.ProfitLossFilters{From: from, To: to}, nil
}

func (h *Handler) parseRange(fromValue, toValue string) (time.Time, time.Time, error) {
	today := h.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	from, err := h.parseDate(fromValue, monthStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := h.parseDate(toValue, today)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
