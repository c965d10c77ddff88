package statements

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
)

// ExpenseReport rolls expenses up by category (element group) and
// expense group, a shallower tree than the full chart hierarchy.
type ExpenseReport struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Expenses      Section         `json:"expenses"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
}

// Statement converts the report into the shared renderer contract.
func (r ExpenseReport) Statement() Statement {
	return Statement{
		Title:    "Expense Report",
		Period:   r.From + " to " + r.To,
		Sections: []Section{r.Expenses},
		Summary: []SummaryLine{
			{Label: "Total Expenses", Amount: r.TotalExpenses},
		},
	}
}

// ExpenseReportService assembles the category-grouped expense report.
type ExpenseReportService struct {
	source   BalanceSource
	cache    *Cache
	validate *validator.Validate
}

// NewExpenseReportService constructs the service. cache may be nil.
func NewExpenseReportService(source BalanceSource, cache *Cache) *ExpenseReportService {
	return &ExpenseReportService{source: source, cache: cache, validate: validator.New()}
}

// Build assembles the expense report for one tenant and period.
func (s *ExpenseReportService) Build(ctx context.Context, tenantID uuid.UUID, filters ProfitLossFilters) (ExpenseReport, error) {
	if s == nil || s.source == nil {
		return ExpenseReport{}, errors.New("statements: expense report service not initialised")
	}
	if err := s.validate.Struct(filters); err != nil {
		return ExpenseReport{}, fmt.Errorf("%w: period start and end required", ErrInvalidFilter)
	}
	if filters.To.Before(filters.From) {
		return ExpenseReport{}, fmt.Errorf("%w: period end before start", ErrInvalidFilter)
	}

	var report ExpenseReport
	key := keyGrouped("expense", tenantID, filters.From, filters.To)
	err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		lines, err := s.source.BalancesForPeriod(ctx, tenantID, filters.From, filters.To)
		if err != nil {
			return nil, err
		}
		return assembleExpenseReport(filters, lines)
	})
	return report, err
}

func assembleExpenseReport(filters ProfitLossFilters, lines []AccountLine) (ExpenseReport, error) {
	sections, totals, err := buildGroupedSections(lines, []SectionSpec{
		{
			Name:   "Expenses",
			Levels: []string{"category", "expense group"},
			Select: func(l AccountLine) (hierarchy.Entry, bool) {
				if l.Type != AccountTypeExpense {
					return hierarchy.Entry{}, false
				}
				return hierarchy.Entry{
					Labels: []string{l.ElementGroup, l.DetailedGroup},
					Amount: l.NormalizedAmount(),
					Ref:    l.Code,
				}, true
			},
		},
	})
	if err != nil {
		return ExpenseReport{}, err
	}
	return ExpenseReport{
		From:          filters.From.Format("2006-01-02"),
		To:            filters.To.Format("2006-01-02"),
		Expenses:      sections[0],
		TotalExpenses: totals[0],
	}, nil
}
