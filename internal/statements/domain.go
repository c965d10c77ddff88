// Package statements assembles the hierarchical financial statements
// served by the back office: balance sheet, profit & loss, tax summary,
// and expense report. All of them share one rollup engine and one row
// contract; the on-screen table, the spreadsheet export, and the PDF
// export consume the same flattened sequence.
package statements

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Main group identifiers. Every account chain must terminate in one of
// these two report partitions.
const (
	MainGroupBalanceSheet  = "balance_sheet"
	MainGroupProfitAndLoss = "profit_and_loss"
)

// AccountLine is the pre-joined input contract supplied by the balance
// retrieval layer: one account with its window balance and its fully
// resolved four-level ancestor chain. The assembler never re-resolves
// the chain; a blank segment surfaces as an integrity error.
//
// Balance is the raw ledger figure (debits minus credits) for the
// requested window. Credit-normal accounts therefore arrive negative
// and are normalised before rollup.
type AccountLine struct {
	AccountID       uuid.UUID       `json:"accountId"`
	Code            string          `json:"accountCode"`
	Name            string          `json:"accountName"`
	Type            AccountType     `json:"accountType"`
	Balance         decimal.Decimal `json:"balance"`
	DetailedGroupID uuid.UUID       `json:"detailedGroupId"`
	DetailedGroup   string          `json:"detailedGroupName"`
	SubElementGroup string          `json:"subElementGroupName"`
	ElementGroup    string          `json:"elementGroupName"`
	MainGroup       string          `json:"mainGroupName"`
}

// coaLevelNames names the builder levels beneath a statement section.
var coaLevelNames = []string{"element group", "sub-element group", "detailed group"}

// NormalizedAmount returns the balance with the account's natural sign:
// debit-normal types (asset, expense) keep the raw sign, credit-normal
// types (liability, equity, revenue) are negated so a credit balance
// reads positive.
func (l AccountLine) NormalizedAmount() decimal.Decimal {
	switch l.Type {
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return l.Balance.Neg()
	default:
		return l.Balance
	}
}

// Entry converts the line into a builder entry on its CoA chain.
func (l AccountLine) Entry() hierarchy.Entry {
	return hierarchy.Entry{
		Labels: []string{l.ElementGroup, l.SubElementGroup, l.DetailedGroup},
		Amount: l.NormalizedAmount(),
		Ref:    l.Code,
	}
}

// errIntegrityForType reports an account whose type does not belong
// under its main group partition, e.g. a revenue account grouped under
// the balance sheet.
func errIntegrityForType(l AccountLine) error {
	return &hierarchy.IntegrityError{Ref: l.Code, Level: "account type"}
}

// checkMainGroup verifies the chain terminates at a known main group.
func (l AccountLine) checkMainGroup() error {
	switch l.MainGroup {
	case MainGroupBalanceSheet, MainGroupProfitAndLoss:
		return nil
	default:
		return &hierarchy.IntegrityError{Ref: l.Code, Level: "main group"}
	}
}

func buildSection(name string, lines []AccountLine) (Section, decimal.Decimal, error) {
	b := hierarchy.NewBuilder(name, coaLevelNames...)
	for _, line := range lines {
		if err := b.Add(line.Entry()); err != nil {
			return Section{}, decimal.Zero, err
		}
	}
	root := b.Root()
	return Section{Name: name, Rows: hierarchy.Flatten(root)}, root.Amount, nil
}
