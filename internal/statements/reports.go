package statements

// Report slugs used in URLs and export job payloads.
const (
	ReportBalanceSheet  = "balance-sheet"
	ReportProfitLoss    = "profit-loss"
	ReportTaxSummary    = "tax-summary"
	ReportExpenseReport = "expense-report"
)

// KnownReport reports whether slug names a supported statement.
func KnownReport(slug string) bool {
	switch slug {
	case ReportBalanceSheet, ReportProfitLoss, ReportTaxSummary, ReportExpenseReport:
		return true
	}
	return false
}
