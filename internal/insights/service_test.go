package insights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/statements"
	_ "github.com/ledgerline/ledgerline/testing"
)

type fakeProvider struct {
	response   string
	err        error
	lastPrompt string
	lastSystem string
}

func (f *fakeProvider) Generate(_ context.Context, systemPrompt, prompt string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastPrompt = prompt
	return f.response, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statementFixture() statements.Statement {
	return statements.Statement{
		Title:  "Profit & Loss",
		Period: "2025-01-01 to 2025-03-31",
		Summary: []statements.SummaryLine{
			{Label: "Total Revenue", Amount: decimal.NewFromInt(5000)},
			{Label: "Total Expenses", Amount: decimal.NewFromInt(3200)},
			{Label: "Net Income", Amount: decimal.NewFromInt(1800)},
		},
	}
}

func TestCommentarySendsSummaryOnly(t *testing.T) {
	provider := &fakeProvider{response: "Revenue exceeded expenses."}
	svc := NewService(testLogger(), provider)

	text, err := svc.Commentary(context.Background(), statementFixture())
	if err != nil {
		t.Fatalf("commentary: %v", err)
	}
	if text != "Revenue exceeded expenses." {
		t.Fatalf("unexpected text %q", text)
	}
	for _, want := range []string{"Profit & Loss", "Total Revenue: 5000.00", "Net Income: 1800.00"} {
		if !strings.Contains(provider.lastPrompt, want) {
			t.Fatalf("prompt missing %q: %s", want, provider.lastPrompt)
		}
	}
	if provider.lastSystem == "" {
		t.Fatal("system prompt not set")
	}
}

func TestCommentaryPropagatesProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	svc := NewService(testLogger(), provider)

	if _, err := svc.Commentary(context.Background(), statementFixture()); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestCommentaryWithoutProvider(t *testing.T) {
	svc := NewService(testLogger(), nil)

	_, err := svc.Commentary(context.Background(), statementFixture())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable got %v", err)
	}
}

func TestCommentaryRejectsEmptyResponse(t *testing.T) {
	provider := &fakeProvider{response: "   "}
	svc := NewService(testLogger(), provider)

	if _, err := svc.Commentary(context.Background(), statementFixture()); err == nil {
		t.Fatal("expected error for empty response")
	}
}
