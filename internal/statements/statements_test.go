package statements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
	_ "github.com/ledgerline/ledgerline/testing"
)

type fakeSource struct {
	lines []AccountLine
	err   error
	calls int
}

func (f *fakeSource) BalancesAsOf(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]AccountLine, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]AccountLine(nil), f.lines...), nil
}

func (f *fakeSource) BalancesForPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]AccountLine, error) {
	return f.BalancesAsOf(ctx, tenantID, to)
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func bsLine(code, name string, typ AccountType, balance string) AccountLine {
	return AccountLine{
		AccountID:       uuid.New(),
		Code:            code,
		Name:            name,
		Type:            typ,
		Balance:         dec(balance),
		DetailedGroupID: uuid.New(),
		DetailedGroup:   name + " Group",
		SubElementGroup: "General",
		ElementGroup:    "Primary",
		MainGroup:       MainGroupBalanceSheet,
	}
}

func plLine(code, name string, typ AccountType, balance string) AccountLine {
	l := bsLine(code, name, typ, balance)
	l.MainGroup = MainGroupProfitAndLoss
	return l
}

var (
	tenantID = uuid.MustParse("f6a7b5ac-9c3f-4f6e-9d37-0b2d7a9f1a11")
	asOf     = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	period   = ProfitLossFilters{
		From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}
)

func TestBalanceSheetIdentityHolds(t *testing.T) {
	source := &fakeSource{lines: []AccountLine{
		bsLine("1000", "Cash", AccountTypeAsset, "1000"),
		bsLine("2000", "Accounts Payable", AccountTypeLiability, "-400"),
		bsLine("3000", "Capital", AccountTypeEquity, "-600"),
	}}
	svc := NewBalanceSheetService(source, nil)
	report, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !report.TotalAssets.Equal(dec("1000")) {
		t.Fatalf("expected total assets 1000 got %s", report.TotalAssets)
	}
	if !report.TotalLiabilities.Equal(dec("400")) {
		t.Fatalf("expected total liabilities 400 got %s", report.TotalLiabilities)
	}
	if !report.TotalEquity.Equal(dec("600")) {
		t.Fatalf("expected total equity 600 got %s", report.TotalEquity)
	}
	if !report.Balanced {
		t.Fatalf("expected identity to hold: 1000 == 400 + 600")
	}
}

func TestBalanceSheetRendersWhenOutOfBalance(t *testing.T) {
	source := &fakeSource{lines: []AccountLine{
		bsLine("1000", "Cash", AccountTypeAsset, "1000"),
		bsLine("2000", "Accounts Payable", AccountTypeLiability, "-400"),
	}}
	svc := NewBalanceSheetService(source, nil)
	report, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	if err != nil {
		t.Fatalf("out-of-balance sheet must still render, got error %v", err)
	}
	if report.Balanced {
		t.Fatalf("expected Balanced = false for 1000 vs 400")
	}
	if len(report.Assets.Rows) == 0 || len(report.Liabilities.Rows) == 0 {
		t.Fatalf("expected sections to render with the discrepancy visible")
	}
}

func TestBalanceSheetIgnoresProfitAndLossLines(t *testing.T) {
	source := &fakeSource{lines: []AccountLine{
		bsLine("1000", "Cash", AccountTypeAsset, "500"),
		plLine("4000", "Sales", AccountTypeRevenue, "-900"),
	}}
	svc := NewBalanceSheetService(source, nil)
	report, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !report.TotalAssets.Equal(dec("500")) {
		t.Fatalf("expected assets 500 got %s", report.TotalAssets)
	}
}

func TestBalanceSheetFailsOnBrokenChain(t *testing.T) {
	broken := bsLine("1000", "Cash", AccountTypeAsset, "500")
	broken.SubElementGroup = ""
	source := &fakeSource{lines: []AccountLine{broken}}
	svc := NewBalanceSheetService(source, nil)
	_, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	var integrity *hierarchy.IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError got %v", err)
	}
	if integrity.Ref != "1000" {
		t.Fatalf("expected error to name account 1000 got %s", integrity.Ref)
	}
}

func TestBalanceSheetFailsOnUnknownMainGroup(t *testing.T) {
	orphan := bsLine("1000", "Cash", AccountTypeAsset, "500")
	orphan.MainGroup = ""
	source := &fakeSource{lines: []AccountLine{orphan}}
	svc := NewBalanceSheetService(source, nil)
	var integrity *hierarchy.IntegrityError
	if _, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf}); !errors.As(err, &integrity) {
		t.Fatalf("expected orphaned account to fail the report, got %v", err)
	}
}

func TestBalanceSheetRejectsMisplacedAccountType(t *testing.T) {
	misplaced := bsLine("4000", "Sales", AccountTypeRevenue, "-900")
	source := &fakeSource{lines: []AccountLine{
		bsLine("1000", "Cash", AccountTypeAsset, "900"),
		misplaced,
	}}
	svc := NewBalanceSheetService(source, nil)
	_, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	var integrity *hierarchy.IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected revenue under the balance sheet to fail the report, got %v", err)
	}
	if integrity.Ref != "4000" || integrity.Level != "account type" {
		t.Fatalf("expected account type error naming 4000 got %+v", integrity)
	}
}

func TestBalanceSheetFiltersRequireAsOf(t *testing.T) {
	svc := NewBalanceSheetService(&fakeSource{}, nil)
	_, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter got %v", err)
	}
}

func TestBalanceSheetEmptySections(t *testing.T) {
	svc := NewBalanceSheetService(&fakeSource{}, nil)
	report, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	rows := report.Equity.Rows
	if len(rows) != 2 {
		t.Fatalf("expected header and zero-total rows got %d", len(rows))
	}
	if rows[1].Label != "Total Equity" || !rows[1].Amount.IsZero() || !rows[1].Subtotal {
		t.Fatalf("expected Total Equity = 0 subtotal got %+v", rows[1])
	}
}

func TestProfitLossNetIncome(t *testing.T) {
	source := &fakeSource{lines: []AccountLine{
		plLine("4000", "Sales", AccountTypeRevenue, "-3000"),
		plLine("4100", "Services", AccountTypeRevenue, "-2000"),
		plLine("5000", "COGS", AccountTypeExpense, "2000"),
		plLine("6000", "Rent", AccountTypeExpense, "1200"),
	}}
	svc := NewProfitLossService(source, nil)
	report, err := svc.Build(context.Background(), tenantID, period)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !report.TotalRevenue.Equal(dec("5000")) {
		t.Fatalf("expected revenue 5000 got %s", report.TotalRevenue)
	}
	if !report.TotalExpense.Equal(dec("3200")) {
		t.Fatalf("expected expenses 3200 got %s", report.TotalExpense)
	}
	if !report.NetIncome.Equal(dec("1800")) {
		t.Fatalf("expected net income 1800 got %s", report.NetIncome)
	}
}

func TestProfitLossNegativeNetIncome(t *testing.T) {
	source := &fakeSource{lines: []AccountLine{
		plLine("4000", "Sales", AccountTypeRevenue, "-1000"),
		plLine("5000", "COGS", AccountTypeExpense, "2500"),
	}}
	svc := NewProfitLossService(source, nil)
	report, err := svc.Build(context.Background(), tenantID, period)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !report.NetIncome.Equal(dec("-1500")) {
		t.Fatalf("expected net income -1500 got %s", report.NetIncome)
	}
}

func TestProfitLossZeroBalanceAccountsProduceNoRows(t *testing.T) {
	source := &fakeSource{lines: []AccountLine{
		plLine("4000", "Sales", AccountTypeRevenue, "-1000"),
		plLine("4100", "Dormant Income", AccountTypeRevenue, "0"),
	}}
	svc := NewProfitLossService(source, nil)
	report, err := svc.Build(context.Background(), tenantID, period)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, row := range report.Revenue.Rows {
		if row.Label == "Dormant Income Group" {
			t.Fatalf("zero-balance account must not produce a row")
		}
	}
	if !report.TotalRevenue.Equal(dec("1000")) {
		t.Fatalf("zero-balance account must not contribute, got %s", report.TotalRevenue)
	}
}

func TestProfitLossRejectsInvertedPeriod(t *testing.T) {
	svc := NewProfitLossService(&fakeSource{}, nil)
	_, err := svc.Build(context.Background(), tenantID, ProfitLossFilters{From: period.To, To: period.From})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter got %v", err)
	}
}

func TestTaxSummaryNetPosition(t *testing.T) {
	collected := AccountLine{
		Code: "2200", Name: "GST Payable", Type: AccountTypeLiability, Balance: dec("-150"),
		DetailedGroup: "GST Payable", SubElementGroup: "Tax Control", ElementGroup: "Federal",
		MainGroup: MainGroupBalanceSheet,
	}
	paid := AccountLine{
		Code: "1300", Name: "GST Receivable", Type: AccountTypeAsset, Balance: dec("90"),
		DetailedGroup: "GST Receivable", SubElementGroup: "Tax Control", ElementGroup: "Federal",
		MainGroup: MainGroupBalanceSheet,
	}
	other := bsLine("1000", "Cash", AccountTypeAsset, "500")
	source := &fakeSource{lines: []AccountLine{collected, paid, other}}

	svc := NewTaxSummaryService(source, nil, ClassifyByGroupKeyword("tax"))
	report, err := svc.Build(context.Background(), tenantID, period)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !report.TotalCollected.Equal(dec("150")) {
		t.Fatalf("expected collected 150 got %s", report.TotalCollected)
	}
	if !report.TotalPaid.Equal(dec("90")) {
		t.Fatalf("expected paid 90 got %s", report.TotalPaid)
	}
	if !report.NetTaxPosition.Equal(dec("60")) {
		t.Fatalf("expected net tax position 60 got %s", report.NetTaxPosition)
	}
	if report.Collected.Rows[1].Label != "Federal" {
		t.Fatalf("expected jurisdiction grouping, got %q", report.Collected.Rows[1].Label)
	}
}

func TestExpenseReportGroupsByCategory(t *testing.T) {
	rent := plLine("6000", "Rent", AccountTypeExpense, "1200")
	rent.ElementGroup = "Occupancy"
	utilities := plLine("6100", "Utilities", AccountTypeExpense, "300")
	utilities.ElementGroup = "Occupancy"
	salaries := plLine("6200", "Salaries", AccountTypeExpense, "4000")
	salaries.ElementGroup = "People"
	sales := plLine("4000", "Sales", AccountTypeRevenue, "-9000")
	source := &fakeSource{lines: []AccountLine{rent, utilities, salaries, sales}}

	svc := NewExpenseReportService(source, nil)
	report, err := svc.Build(context.Background(), tenantID, period)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !report.TotalExpenses.Equal(dec("5500")) {
		t.Fatalf("expected total expenses 5500 got %s", report.TotalExpenses)
	}
	rows := report.Expenses.Rows
	if rows[1].Label != "Occupancy" {
		t.Fatalf("expected first category Occupancy got %q", rows[1].Label)
	}
	var occupancyTotal *decimal.Decimal
	for _, row := range rows {
		if row.Subtotal && row.Label == "Total Occupancy" {
			occupancyTotal = row.Amount
		}
	}
	if occupancyTotal == nil || !occupancyTotal.Equal(dec("1500")) {
		t.Fatalf("expected Total Occupancy 1500 got %v", occupancyTotal)
	}
}

func TestStatementSectionOrderIsStable(t *testing.T) {
	source := &fakeSource{lines: []AccountLine{
		bsLine("1000", "Cash", AccountTypeAsset, "1000"),
		bsLine("2000", "Accounts Payable", AccountTypeLiability, "-400"),
		bsLine("3000", "Capital", AccountTypeEquity, "-600"),
	}}
	svc := NewBalanceSheetService(source, nil)
	report, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	st := report.Statement()
	want := []string{"Assets", "Liabilities", "Equity"}
	for i, section := range st.Sections {
		if section.Name != want[i] {
			t.Fatalf("section %d = %q want %q", i, section.Name, want[i])
		}
	}
	if st.Summary[0].Label != "Total Assets" {
		t.Fatalf("expected Total Assets first in summary got %q", st.Summary[0].Label)
	}
}
