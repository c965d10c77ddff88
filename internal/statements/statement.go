package statements

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/statements/hierarchy"
)

// Section is one named, ordered row sequence of a statement.
type Section struct {
	Name string          `json:"name"`
	Rows []hierarchy.Row `json:"rows"`
}

// SummaryLine is one report-level scalar, e.g. Total Assets.
type SummaryLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Statement is the renderer-facing shape shared by every report type.
// Section and summary order is part of the contract; exporters must
// reproduce it exactly and never re-derive the hierarchy themselves.
type Statement struct {
	Title    string        `json:"title"`
	Period   string        `json:"period"`
	Sections []Section     `json:"sections"`
	Summary  []SummaryLine `json:"summary"`
}
