package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const consoleWidth = 60

// FormatConsole renders the statement as plain text with Dutch headings.
func FormatConsole(r *Report) string {
	var b strings.Builder
	rule := strings.Repeat("-", consoleWidth)
	double := strings.Repeat("=", consoleWidth)

	line := func(label string, amount decimal.Decimal) {
		fmt.Fprintf(&b, "%-42s %17s\n", label, FormatEUR(amount))
	}

	title := fmt.Sprintf("Resultatenrekening %d", r.FiscalYear)
	fmt.Fprintln(&b, double)
	fmt.Fprintf(&b, "%*s\n", (consoleWidth+len(title))/2, title)
	fmt.Fprintln(&b, double)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Baten")
	fmt.Fprintln(&b, rule)
	for _, item := range r.Income {
		line("  "+displayLabel(item), item.Amount)
		for _, sub := range item.SubItems {
			line("    - "+sub.Label, sub.Amount)
		}
	}
	fmt.Fprintln(&b, rule)
	line("Totaal Baten", r.TotalIncome())
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Kosten")
	fmt.Fprintln(&b, rule)
	for _, item := range r.Expenses {
		line("  "+displayLabel(item), item.Amount.Neg())
	}
	fmt.Fprintln(&b, rule)
	line("Totaal Kosten", r.TotalExpenses().Neg())
	fmt.Fprintln(&b)

	if len(r.Assets) > 0 {
		fmt.Fprintln(&b, "Afschrijvingen")
		fmt.Fprintln(&b, rule)
		for _, e := range r.Assets {
			line(fmt.Sprintf("  %s (jaar %d)", e.AssetName, e.YearNumber), e.Amount)
		}
		fmt.Fprintln(&b, rule)
		line("Totaal Afschrijvingen", r.TotalDepreciation().Neg())
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, double)
	outcome := "Winst"
	if r.ProfitLoss().IsNegative() {
		outcome = "Verlies"
	}
	line(fmt.Sprintf("Resultaat (%s)", outcome), r.ProfitLoss())
	fmt.Fprintln(&b, double)

	if len(r.Disallowed) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Verworpen Uitgaven")
		fmt.Fprintln(&b, rule)
		for _, d := range r.Disallowed {
			fmt.Fprintf(&b, "  %-28s %s (%d%% aftrekbaar)\n", d.Label, FormatEUR(d.Total), d.DeductiblePct)
			fmt.Fprintf(&b, "    Verworpen: %s\n", FormatEUR(d.Disallowed))
		}
		fmt.Fprintln(&b, rule)
		line("Totaal Verworpen", r.TotalDisallowed())
	}

	if !r.UncategorizedTotal.IsZero() {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Waarschuwing: %d niet-gecategoriseerde transacties (%s).\n",
			r.UncategorizedCount, FormatEUR(r.UncategorizedTotal))
		fmt.Fprintln(&b, "Het resultaat is exclusief deze transacties.")
	}
	if !r.Private.Balance.IsZero() {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Waarschuwing: verkeerde rekening niet in balans (%s), %d gekoppelde paren, %d open.\n",
			FormatEUR(r.Private.Balance), r.Private.MatchedPairs, len(r.Private.Unmatched))
	}

	return b.String()
}
