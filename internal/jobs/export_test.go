package jobs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/notify"
	"github.com/ledgerline/ledgerline/internal/statements"
	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
	_ "github.com/ledgerline/ledgerline/testing"
)

type fakeBalanceSheet struct {
	report statements.BalanceSheetReport
	err    error
}

func (f *fakeBalanceSheet) Build(_ context.Context, _ uuid.UUID, _ statements.BalanceSheetFilters) (statements.BalanceSheetReport, error) {
	return f.report, f.err
}

type fakeNotifier struct {
	created []notify.Notification
}

func (f *fakeNotifier) Create(_ context.Context, n notify.Notification) (notify.Notification, error) {
	f.created = append(f.created, n)
	return n, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func exportTask(t *testing.T, payload StatementExportPayload) *asynq.Task {
	t.Helper()
	task, err := NewStatementExportTask(payload)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	return task
}

func balanceSheetFixture() statements.BalanceSheetReport {
	amount := decimal.NewFromInt(1000)
	return statements.BalanceSheetReport{
		AsOf: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Assets: statements.Section{Name: "Assets", Rows: []hierarchy.Row{
			{Level: 0, Label: "Assets"},
			{Level: 0, Label: "Total Assets", Amount: &amount, Subtotal: true},
		}},
		TotalAssets: amount,
		Balanced:    true,
	}
}

func TestStatementExporterWritesCSVAndNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	exporter := &StatementExporter{
		BalanceSheet: &fakeBalanceSheet{report: balanceSheetFixture()},
		Notifier:     notifier,
		OutputDir:    t.TempDir(),
		Logger:       discardLogger(),
	}
	payload := StatementExportPayload{
		JobID:    uuid.New(),
		TenantID: uuid.New(),
		Report:   statements.ReportBalanceSheet,
		Format:   FormatCSV,
		AsOf:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	if err := exporter.Handle(context.Background(), exportTask(t, payload)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	path := filepath.Join(exporter.OutputDir, payload.Report+"-"+payload.JobID.String()+".csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Balance Sheet") {
		t.Fatalf("csv missing title: %q", data)
	}

	if len(notifier.created) != 1 {
		t.Fatalf("expected 1 notification got %d", len(notifier.created))
	}
	n := notifier.created[0]
	if n.Kind != notify.KindExportReady {
		t.Fatalf("unexpected kind %q", n.Kind)
	}
	if n.TenantID != payload.TenantID {
		t.Fatalf("notification for wrong tenant")
	}
	if n.FilePath != path {
		t.Fatalf("notification path %q want %q", n.FilePath, path)
	}
}

func TestStatementExporterSkipsRetryOnBrokenChain(t *testing.T) {
	notifier := &fakeNotifier{}
	exporter := &StatementExporter{
		BalanceSheet: &fakeBalanceSheet{err: &hierarchy.IntegrityError{Ref: "1000", Level: "detailed group"}},
		Notifier:     notifier,
		OutputDir:    t.TempDir(),
		Logger:       discardLogger(),
	}
	payload := StatementExportPayload{
		JobID:    uuid.New(),
		TenantID: uuid.New(),
		Report:   statements.ReportBalanceSheet,
		Format:   FormatCSV,
		AsOf:     time.Now(),
	}

	err := exporter.Handle(context.Background(), exportTask(t, payload))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry got %v", err)
	}
	if len(notifier.created) != 1 || notifier.created[0].Kind != notify.KindExportFailed {
		t.Fatalf("expected failure notification, got %+v", notifier.created)
	}
}

func TestStatementExporterRejectsUnknownReport(t *testing.T) {
	exporter := &StatementExporter{
		OutputDir: t.TempDir(),
		Logger:    discardLogger(),
	}
	payload := StatementExportPayload{
		JobID:    uuid.New(),
		TenantID: uuid.New(),
		Report:   "trial-balance",
	}

	err := exporter.Handle(context.Background(), exportTask(t, payload))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry got %v", err)
	}
}

func TestNewStatementExportTaskValidates(t *testing.T) {
	if _, err := NewStatementExportTask(StatementExportPayload{Report: statements.ReportProfitLoss}); err == nil {
		t.Fatal("expected error for missing tenant")
	}
	if _, err := NewStatementExportTask(StatementExportPayload{TenantID: uuid.New()}); err == nil {
		t.Fatal("expected error for missing report")
	}
}
