package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/notify"
	"github.com/ledgerline/ledgerline/internal/statements"
	"github.com/ledgerline/ledgerline/internal/statements/export"
	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
)

// Builder interfaces narrow the statement services to what the worker
// needs, so tests can swap in fakes.
type (
	BalanceSheetBuilder interface {
		Build(ctx context.Context, tenantID uuid.UUID, f statements.BalanceSheetFilters) (statements.BalanceSheetReport, error)
	}
	ProfitLossBuilder interface {
		Build(ctx context.Context, tenantID uuid.UUID, f statements.ProfitLossFilters) (statements.ProfitLossReport, error)
	}
	TaxSummaryBuilder interface {
		Build(ctx context.Context, tenantID uuid.UUID, f statements.ProfitLossFilters) (statements.TaxSummaryReport, error)
	}
	ExpenseReportBuilder interface {
		Build(ctx context.Context, tenantID uuid.UUID, f statements.ProfitLossFilters) (statements.ExpenseReport, error)
	}
)

// PDFRenderer renders a statement to PDF bytes.
type PDFRenderer interface {
	RenderStatement(ctx context.Context, st statements.Statement) ([]byte, error)
}

// Notifier records export outcomes on the tenant feed.
type Notifier interface {
	Create(ctx context.Context, n notify.Notification) (notify.Notification, error)
}

// StatementExporter handles statements:export tasks.
type StatementExporter struct {
	BalanceSheet  BalanceSheetBuilder
	ProfitLoss    ProfitLossBuilder
	TaxSummary    TaxSummaryBuilder
	ExpenseReport ExpenseReportBuilder
	PDF           PDFRenderer
	Notifier      Notifier
	OutputDir     string
	Logger        *slog.Logger
	Metrics       *Metrics
}

// Handle builds the requested statement, writes the export file and
// notifies the tenant. Payload and data-integrity failures are not
// retried; a notification records the failure instead.
func (e *StatementExporter) Handle(ctx context.Context, task *asynq.Task) error {
	tracker := e.Metrics.Track(TaskStatementExport)
	return tracker.End(e.handle(ctx, task))
}

func (e *StatementExporter) handle(ctx context.Context, task *asynq.Task) error {
	var payload StatementExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("statement export payload: %v: %w", err, asynq.SkipRetry)
	}

	st, err := e.buildStatement(ctx, payload)
	if err != nil {
		var integrity *hierarchy.IntegrityError
		if errors.As(err, &integrity) || errors.Is(err, statements.ErrInvalidFilter) {
			e.notifyFailure(ctx, payload, err)
			return fmt.Errorf("statement export %s: %v: %w", payload.Report, err, asynq.SkipRetry)
		}
		return fmt.Errorf("statement export %s: %w", payload.Report, err)
	}

	data, ext, err := e.render(ctx, payload.Format, st)
	if err != nil {
		return fmt.Errorf("statement export render: %w", err)
	}

	name := fmt.Sprintf("%s-%s.%s", payload.Report, payload.JobID, ext)
	path := filepath.Join(e.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("statement export write: %w", err)
	}

	if e.Notifier != nil {
		_, err = e.Notifier.Create(ctx, notify.Notification{
			TenantID: payload.TenantID,
			Kind:     notify.KindExportReady,
			Title:    st.Title + " export ready",
			Body:     fmt.Sprintf("%s (%s) is ready to download.", st.Title, st.Period),
			FilePath: path,
		})
		if err != nil {
			e.Logger.Warn("export notification", slog.Any("error", err))
		}
	}
	e.Logger.Info("statement exported",
		slog.String("report", payload.Report),
		slog.String("format", payload.Format),
		slog.String("path", path))
	return nil
}

func (e *StatementExporter) buildStatement(ctx context.Context, payload StatementExportPayload) (statements.Statement, error) {
	period := statements.ProfitLossFilters{From: payload.From, To: payload.To}
	switch payload.Report {
	case statements.ReportBalanceSheet:
		report, err := e.BalanceSheet.Build(ctx, payload.TenantID, statements.BalanceSheetFilters{AsOf: payload.AsOf})
		if err != nil {
			return statements.Statement{}, err
		}
		return report.Statement(), nil
	case statements.ReportProfitLoss:
		report, err := e.ProfitLoss.Build(ctx, payload.TenantID, period)
		if err != nil {
			return statements.Statement{}, err
		}
		return report.Statement(), nil
	case statements.ReportTaxSummary:
		report, err := e.TaxSummary.Build(ctx, payload.TenantID, period)
		if err != nil {
			return statements.Statement{}, err
		}
		return report.Statement(), nil
	case statements.ReportExpenseReport:
		report, err := e.ExpenseReport.Build(ctx, payload.TenantID, period)
		if err != nil {
			return statements.Statement{}, err
		}
		return report.Statement(), nil
	}
	return statements.Statement{}, fmt.Errorf("unknown report %q: %w", payload.Report, asynq.SkipRetry)
}

func (e *StatementExporter) render(ctx context.Context, format string, st statements.Statement) ([]byte, string, error) {
	switch format {
	case FormatPDF:
		data, err := e.PDF.RenderStatement(ctx, st)
		return data, "pdf", err
	case FormatCSV, "":
		var buf bytes.Buffer
		if err := export.WriteStatementCSV(&buf, st); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "csv", nil
	}
	return nil, "", fmt.Errorf("unknown format %q: %w", format, asynq.SkipRetry)
}

func (e *StatementExporter) notifyFailure(ctx context.Context, payload StatementExportPayload, cause error) {
	if e.Notifier == nil {
		return
	}
	_, err := e.Notifier.Create(ctx, notify.Notification{
		TenantID: payload.TenantID,
		Kind:     notify.KindExportFailed,
		Title:    "Statement export failed",
		Body:     fmt.Sprintf("Export of %s could not be completed: %v", payload.Report, cause),
	})
	if err != nil {
		e.Logger.Warn("export failure notification", slog.Any("error", err))
	}
}
