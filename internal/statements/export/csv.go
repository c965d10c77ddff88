// Package export adapts assembled statements for the spreadsheet and
// PDF consumers. Both render the flattened row sequence exactly as the
// engine produced it; neither re-derives hierarchy or totals.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ledgerline/ledgerline/internal/statements"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders the decimal exactly as the engine computed it,
// rounded to cents, with the integer part grouped by thousands. Going
// through float64 here would corrupt large amounts.
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		intPart = amountPrinter.Sprintf("%d", n)
	}
	return sign + intPart + "." + frac
}

// WriteStatementCSV serialises a statement as a spreadsheet: one record
// per report row, the level driving indentation of the label cell and
// the amount cell left blank for group header rows.
func WriteStatementCSV(w io.Writer, st statements.Statement) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{st.Title, st.Period}); err != nil {
		return err
	}
	for _, section := range st.Sections {
		if err := writer.Write([]string{"", ""}); err != nil {
			return err
		}
		for _, row := range section.Rows {
			amount := ""
			if row.Amount != nil {
				amount = formatAmount(*row.Amount)
			}
			record := []string{strings.Repeat("  ", row.Level) + row.Label, amount}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	if err := writer.Write([]string{"", ""}); err != nil {
		return err
	}
	for _, line := range st.Summary {
		if err := writer.Write([]string{line.Label, formatAmount(line.Amount)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
