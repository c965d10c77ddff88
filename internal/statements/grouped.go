package statements

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
)

// SectionSpec declares one section of a report grouped outside the
// chart-of-accounts hierarchy. The builder does not care what the
// levels mean: any caller that can turn an account line into an
// (amount, ancestor-chain) entry gets rollup and export for free.
type SectionSpec struct {
	Name   string
	Levels []string
	Select func(AccountLine) (hierarchy.Entry, bool)
}

func buildGroupedSections(lines []AccountLine, specs []SectionSpec) ([]Section, []decimal.Decimal, error) {
	builders := make([]*hierarchy.Builder, len(specs))
	for i, spec := range specs {
		builders[i] = hierarchy.NewBuilder(spec.Name, spec.Levels...)
	}
	for _, line := range lines {
		if err := line.checkMainGroup(); err != nil {
			return nil, nil, err
		}
		for i, spec := range specs {
			entry, ok := spec.Select(line)
			if !ok {
				continue
			}
			if err := builders[i].Add(entry); err != nil {
				return nil, nil, err
			}
		}
	}
	sections := make([]Section, len(specs))
	totals := make([]decimal.Decimal, len(specs))
	for i, b := range builders {
		root := b.Root()
		sections[i] = Section{Name: specs[i].Name, Rows: hierarchy.Flatten(root)}
		totals[i] = root.Amount
	}
	return sections, totals, nil
}
