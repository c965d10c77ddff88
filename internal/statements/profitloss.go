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

// ProfitLossFilters selects the accumulation window, inclusive on both
// ends.
type ProfitLossFilters struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required"`
}

// ProfitLossReport is the assembled profit & loss statement.
type ProfitLossReport struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Revenue      Section         `json:"revenue"`
	Expenses     Section         `json:"expenses"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	NetIncome    decimal.Decimal `json:"netIncome"`
}

// Statement converts the report into the shared renderer contract.
func (r ProfitLossReport) Statement() Statement {
	return Statement{
		Title:    "Profit & Loss",
		Period:   r.From.Format("2006-01-02") + " to " + r.To.Format("2006-01-02"),
		Sections: []Section{r.Revenue, r.Expenses},
		Summary: []SummaryLine{
			{Label: "Total Revenue", Amount: r.TotalRevenue},
			{Label: "Total Expenses", Amount: r.TotalExpense},
			{Label: "Net Income", Amount: r.NetIncome},
		},
	}
}

// ProfitLossService assembles profit & loss statements.
type ProfitLossService struct {
	source   BalanceSource
	cache    *Cache
	validate *validator.Validate
}

// NewProfitLossService constructs the service. cache may be nil.
func NewProfitLossService(source BalanceSource, cache *Cache) *ProfitLossService {
	return &ProfitLossService{source: source, cache: cache, validate: validator.New()}
}

// Build assembles the period statement for one tenant.
func (s *ProfitLossService) Build(ctx context.Context, tenantID uuid.UUID, filters ProfitLossFilters) (ProfitLossReport, error) {
	if s == nil || s.source == nil {
		return ProfitLossReport{}, errors.New("statements: profit loss service not initialised")
	}
	if err := s.validate.Struct(filters); err != nil {
		return ProfitLossReport{}, fmt.Errorf("%w: period start and end required", ErrInvalidFilter)
	}
	if filters.To.Before(filters.From) {
		return ProfitLossReport{}, fmt.Errorf("%w: period end before start", ErrInvalidFilter)
	}

	var report ProfitLossReport
	key := keyProfitLoss(tenantID, filters.From, filters.To)
	err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		lines, err := s.source.BalancesForPeriod(ctx, tenantID, filters.From, filters.To)
		if err != nil {
			return nil, err
		}
		return assembleProfitLoss(filters, lines)
	})
	return report, err
}

func assembleProfitLoss(filters ProfitLossFilters, lines []AccountLine) (ProfitLossReport, error) {
	var revenue, expenses []AccountLine
	for _, line := range lines {
		if err := line.checkMainGroup(); err != nil {
			return ProfitLossReport{}, err
		}
		if line.MainGroup != MainGroupProfitAndLoss {
			continue
		}
		switch line.Type {
		case AccountTypeRevenue:
			revenue = append(revenue, line)
		case AccountTypeExpense:
			expenses = append(expenses, line)
		default:
			return ProfitLossReport{}, errIntegrityForType(line)
		}
	}

	revenueSection, totalRevenue, err := buildSection("Revenue", revenue)
	if err != nil {
		return ProfitLossReport{}, err
	}
	expenseSection, totalExpense, err := buildSection("Expenses", expenses)
	if err != nil {
		return ProfitLossReport{}, err
	}

	return ProfitLossReport{
		From:         filters.From,
		To:           filters.To,
		Revenue:      revenueSection,
		Expenses:     expenseSection,
		TotalRevenue: totalRevenue,
		TotalExpense: totalExpense,
		NetIncome:    totalRevenue.Sub(totalExpense),
	}, nil
}
