package statements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidFilter marks filter validation failures.
var ErrInvalidFilter = errors.New("statements: invalid filter")

// BalanceSheetFilters selects the snapshot date for the balance sheet.
type BalanceSheetFilters struct {
	AsOf time.Time `validate:"required"`
}

// BalanceSheetReport is the assembled balance sheet. Balanced exposes
// the accounting identity (assets = liabilities + equity) as a
// diagnostic; an out-of-balance sheet still renders so the discrepancy
// is visible instead of hidden behind an error page.
type BalanceSheetReport struct {
	AsOf             time.Time       `json:"asOf"`
	Assets           Section         `json:"assets"`
	Liabilities      Section         `json:"liabilities"`
	Equity           Section         `json:"equity"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	Balanced         bool            `json:"balanced"`
}

// Statement converts the report into the shared renderer contract.
func (r BalanceSheetReport) Statement() Statement {
	return Statement{
		Title:    "Balance Sheet",
		Period:   "As of " + r.AsOf.Format("2006-01-02"),
		Sections: []Section{r.Assets, r.Liabilities, r.Equity},
		Summary: []SummaryLine{
			{Label: "Total Assets", Amount: r.TotalAssets},
			{Label: "Total Liabilities", Amount: r.TotalLiabilities},
			{Label: "Total Equity", Amount: r.TotalEquity},
		},
	}
}

// BalanceSheetService assembles balance sheets from a balance source.
type BalanceSheetService struct {
	source   BalanceSource
	cache    *Cache
	validate *validator.Validate
}

// NewBalanceSheetService constructs the service. cache may be nil.
func NewBalanceSheetService(source BalanceSource, cache *Cache) *BalanceSheetService {
	return &BalanceSheetService{source: source, cache: cache, validate: validator.New()}
}

// Build assembles the balance sheet snapshot for one tenant.
func (s *BalanceSheetService) Build(ctx context.Context, tenantID uuid.UUID, filters BalanceSheetFilters) (BalanceSheetReport, error) {
	if s == nil || s.source == nil {
		return BalanceSheetReport{}, errors.New("statements: balance sheet service not initialised")
	}
	if err := s.validate.Struct(filters); err != nil {
		return BalanceSheetReport{}, fmt.Errorf("%w: as-of date required", ErrInvalidFilter)
	}

	var report BalanceSheetReport
	key := keyBalanceSheet(tenantID, filters.AsOf)
	err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		lines, err := s.source.BalancesAsOf(ctx, tenantID, filters.AsOf)
		if err != nil {
			return nil, err
		}
		return assembleBalanceSheet(filters.AsOf, lines)
	})
	return report, err
}

func assembleBalanceSheet(asOf time.Time, lines []AccountLine) (BalanceSheetReport, error) {
	var assets, liabilities, equity []AccountLine
	for _, line := range lines {
		if err := line.checkMainGroup(); err != nil {
			return BalanceSheetReport{}, err
		}
		if line.MainGroup != MainGroupBalanceSheet {
			continue
		}
		switch line.Type {
		case AccountTypeAsset:
			assets = append(assets, line)
		case AccountTypeLiability:
			liabilities = append(liabilities, line)
		case AccountTypeEquity:
			equity = append(equity, line)
		default:
			// A revenue or expense account grouped under the balance
			// sheet partition is a chart misconfiguration.
			return BalanceSheetReport{}, errIntegrityForType(line)
		}
	}

	assetSection, totalAssets, err := buildSection("Assets", assets)
	if err != nil {
		return BalanceSheetReport{}, err
	}
	liabilitySection, totalLiabilities, err := buildSection("Liabilities", liabilities)
	if err != nil {
		return BalanceSheetReport{}, err
	}
	equitySection, totalEquity, err := buildSection("Equity", equity)
	if err != nil {
		return BalanceSheetReport{}, err
	}

	return BalanceSheetReport{
		AsOf:             asOf,
		Assets:           assetSection,
		Liabilities:      liabilitySection,
		Equity:           equitySection,
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		TotalEquity:      totalEquity,
		Balanced:         totalAssets.Equal(totalLiabilities.Add(totalEquity)),
	}, nil
}
