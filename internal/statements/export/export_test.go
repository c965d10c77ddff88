package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/statements"
	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
	_ "github.com/ledgerline/ledgerline/testing"
)

func amount(v string) *decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return &d
}

func fixture() statements.Statement {
	return statements.Statement{
		Title:  "Balance Sheet",
		Period: "As of 2026-06-30",
		Sections: []statements.Section{
			{
				Name: "Assets",
				Rows: []hierarchy.Row{
					{Level: 0, Label: "Assets"},
					{Level: 1, Label: "Current Assets"},
					{Level: 2, Label: "Cash & Equivalents"},
					{Level: 3, Label: "Bank", Amount: amount("1250.5")},
					{Level: 2, Label: "Total Cash & Equivalents", Amount: amount("1250.5"), Subtotal: true},
					{Level: 1, Label: "Total Current Assets", Amount: amount("1250.5"), Subtotal: true},
					{Level: 0, Label: "Total Assets", Amount: amount("1250.5"), Subtotal: true},
				},
			},
		},
		Summary: []statements.SummaryLine{
			{Label: "Total Assets", Amount: *amount("1250.5")},
		},
	}
}

func TestWriteStatementCSVPreservesRowOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatementCSV(&buf, fixture()); err != nil {
		t.Fatalf("WriteStatementCSV() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	// Title row, blank separator, 7 statement rows, blank, 1 summary row.
	if len(records) != 11 {
		t.Fatalf("expected 11 records got %d", len(records))
	}
	if records[0][0] != "Balance Sheet" {
		t.Fatalf("expected title record got %q", records[0][0])
	}
	wantLabels := []string{
		"Assets",
		"  Current Assets",
		"    Cash & Equivalents",
		"      Bank",
		"    Total Cash & Equivalents",
		"  Total Current Assets",
		"Total Assets",
	}
	for i, want := range wantLabels {
		if got := records[2+i][0]; got != want {
			t.Fatalf("record %d label = %q want %q", i, got, want)
		}
	}
}

func TestWriteStatementCSVBlankAmountForHeaders(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatementCSV(&buf, fixture()); err != nil {
		t.Fatalf("WriteStatementCSV() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if records[2][1] != "" {
		t.Fatalf("header row must have a blank amount cell, got %q", records[2][1])
	}
	if records[5][1] != "1,250.50" {
		t.Fatalf("expected formatted leaf amount got %q", records[5][1])
	}
}

func TestFormatAmountKeepsDecimalPrecision(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1250.5", "1,250.50"},
		{"-1250.5", "-1,250.50"},
		{"999.999", "1,000.00"},
		{"0", "0.00"},
		// Past float64's 53-bit mantissa; a float round trip would
		// land on a neighbouring value.
		{"9007199254740993.37", "9,007,199,254,740,993.37"},
	}
	for _, tc := range cases {
		if got := formatAmount(*amount(tc.in)); got != tc.want {
			t.Fatalf("formatAmount(%s) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildHTMLKeepsSubtotalPlacement(t *testing.T) {
	html := buildHTML(fixture())
	bankIdx := strings.Index(html, ">Bank<")
	subtotalIdx := strings.Index(html, ">Total Cash &amp; Equivalents<")
	if bankIdx < 0 || subtotalIdx < 0 {
		t.Fatalf("expected both leaf and subtotal rows in html")
	}
	if subtotalIdx < bankIdx {
		t.Fatalf("subtotal row must follow its children")
	}
	if !strings.Contains(html, "class=\"subtotal\"") {
		t.Fatalf("expected subtotal styling markers")
	}
}

func TestRenderStatementRequiresEndpoint(t *testing.T) {
	exporter := &PDFExporter{}
	if _, err := exporter.RenderStatement(t.Context(), fixture()); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
