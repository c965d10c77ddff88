package statements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
)

// TaxSide distinguishes tax collected on sales from tax paid on
// purchases.
type TaxSide int

const (
	TaxCollected TaxSide = iota
	TaxPaid
)

// TaxClassifier decides whether an account line belongs on the tax
// summary and, if so, under which jurisdiction and side. The grouping
// key is entirely caller-supplied; the rollup engine never inspects it.
type TaxClassifier func(AccountLine) (jurisdiction string, side TaxSide, ok bool)

// ClassifyByGroupKeyword matches accounts whose sub-element or detailed
// group mentions the keyword (e.g. "Tax", "VAT", "GST"), takes the
// jurisdiction from the element group, and derives the side from the
// account's normal balance: credit-normal control accounts collect,
// debit-normal accounts pay.
func ClassifyByGroupKeyword(keyword string) TaxClassifier {
	needle := strings.ToLower(keyword)
	return func(l AccountLine) (string, TaxSide, bool) {
		haystack := strings.ToLower(l.SubElementGroup + " " + l.DetailedGroup)
		if !strings.Contains(haystack, needle) {
			return "", 0, false
		}
		side := TaxPaid
		if l.Type == AccountTypeLiability || l.Type == AccountTypeRevenue {
			side = TaxCollected
		}
		return l.ElementGroup, side, true
	}
}

// TaxSummaryReport groups tax control accounts by jurisdiction.
type TaxSummaryReport struct {
	From           string          `json:"from"`
	To             string          `json:"to"`
	Collected      Section         `json:"collected"`
	Paid           Section         `json:"paid"`
	TotalCollected decimal.Decimal `json:"totalCollected"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	NetTaxPosition decimal.Decimal `json:"netTaxPosition"`
}

// Statement converts the report into the shared renderer contract.
func (r TaxSummaryReport) Statement() Statement {
	return Statement{
		Title:    "Tax Summary",
		Period:   r.From + " to " + r.To,
		Sections: []Section{r.Collected, r.Paid},
		Summary: []SummaryLine{
			{Label: "Total Tax Collected", Amount: r.TotalCollected},
			{Label: "Total Tax Paid", Amount: r.TotalPaid},
			{Label: "Net Tax Position", Amount: r.NetTaxPosition},
		},
	}
}

// TaxSummaryService assembles the jurisdiction-grouped tax summary.
type TaxSummaryService struct {
	source   BalanceSource
	cache    *Cache
	classify TaxClassifier
	validate *validator.Validate
}

// NewTaxSummaryService constructs the service. cache may be nil.
func NewTaxSummaryService(source BalanceSource, cache *Cache, classify TaxClassifier) *TaxSummaryService {
	return &TaxSummaryService{source: source, cache: cache, classify: classify, validate: validator.New()}
}

var taxLevelNames = []string{"jurisdiction", "tax group"}

// Build assembles the tax summary for one tenant and period.
func (s *TaxSummaryService) Build(ctx context.Context, tenantID uuid.UUID, filters ProfitLossFilters) (TaxSummaryReport, error) {
	if s == nil || s.source == nil || s.classify == nil {
		return TaxSummaryReport{}, errors.New("statements: tax summary service not initialised")
	}
	if err := s.validate.Struct(filters); err != nil {
		return TaxSummaryReport{}, fmt.Errorf("%w: period start and end required", ErrInvalidFilter)
	}
	if filters.To.Before(filters.From) {
		return TaxSummaryReport{}, fmt.Errorf("%w: period end before start", ErrInvalidFilter)
	}

	var report TaxSummaryReport
	key := keyGrouped("tax", tenantID, filters.From, filters.To)
	err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		lines, err := s.source.BalancesForPeriod(ctx, tenantID, filters.From, filters.To)
		if err != nil {
			return nil, err
		}
		return s.assemble(filters, lines)
	})
	return report, err
}

func (s *TaxSummaryService) assemble(filters ProfitLossFilters, lines []AccountLine) (TaxSummaryReport, error) {
	entryFor := func(l AccountLine, want TaxSide) (hierarchy.Entry, bool) {
		jurisdiction, side, ok := s.classify(l)
		if !ok || side != want {
			return hierarchy.Entry{}, false
		}
		return hierarchy.Entry{
			Labels: []string{jurisdiction, l.DetailedGroup},
			Amount: l.NormalizedAmount(),
			Ref:    l.Code,
		}, true
	}
	sections, totals, err := buildGroupedSections(lines, []SectionSpec{
		{
			Name:   "Tax Collected",
			Levels: taxLevelNames,
			Select: func(l AccountLine) (hierarchy.Entry, bool) { return entryFor(l, TaxCollected) },
		},
		{
			Name:   "Tax Paid",
			Levels: taxLevelNames,
			Select: func(l AccountLine) (hierarchy.Entry, bool) { return entryFor(l, TaxPaid) },
		},
	})
	if err != nil {
		return TaxSummaryReport{}, err
	}
	return TaxSummaryReport{
		From:           filters.From.Format("2006-01-02"),
		To:             filters.To.Format("2006-01-02"),
		Collected:      sections[0],
		Paid:           sections[1],
		TotalCollected: totals[0],
		TotalPaid:      totals[1],
		NetTaxPosition: totals[0].Sub(totals[1]),
	}, nil
}
