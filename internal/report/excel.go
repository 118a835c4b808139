package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"boekhouden/internal/models"
)

// Sheet names of the exported workbook.
const (
	SheetTransactions = "Verrichtingen"
	SheetAttention    = "Aandachtspunten"
)

const currencyFormat = `€ #,##0.00`

var transactionHeaders = []string{
	"Rekening", "Boekingsdatum", "Valutadatum", "Rekeninguittrekselnr", "Transactienr",
	"Tegenpartij", "Rekening Tegenpartij", "Straat en nummer", "Postcode en plaats",
	"BIC", "Landcode", "Omschrijving", "Bedrag", "Devies",
	"Categorie", "Therapeutisch", "Bron",
}

var transactionWidths = []float64{22, 12, 12, 18, 12, 35, 24, 25, 22, 12, 10, 50, 14, 8, 25, 12, 25}

// SheetPnL is the name of the statement sheet for year.
func SheetPnL(year int) string {
	return fmt.Sprintf("P&L %d", year)
}

type styles struct {
	title, bold, money, boldMoney, header, cell, cellMoney, italic, warning int
}

func newStyles(f *excelize.File) (styles, error) {
	numFmt := currencyFormat
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 16}},
		{Font: &excelize.Font{Bold: true}},
		{CustomNumFmt: &numFmt},
		{Font: &excelize.Font{Bold: true}, CustomNumFmt: &numFmt},
		{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"2C5282"}, Pattern: 1},
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center"},
		},
		{Border: border},
		{Border: border, CustomNumFmt: &numFmt},
		{Font: &excelize.Font{Italic: true}},
		{Font: &excelize.Font{Bold: true, Color: "92400E"}, Fill: excelize.Fill{Type: "pattern", Color: []string{"FEF3C7"}, Pattern: 1}},
	}
	ids := make([]int, len(defs))
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return styles{}, fmt.Errorf("create style: %w", err)
		}
		ids[i] = id
	}
	return styles{ids[0], ids[1], ids[2], ids[3], ids[4], ids[5], ids[6], ids[7], ids[8]}, nil
}

// sheetWriter tracks the current row while writing a sheet top to bottom.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) set(col int, value any, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.err = err
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, style)
	}
}

func (w *sheetWriter) amountRow(label string, amount decimal.Decimal, labelStyle, amountStyle int) {
	w.set(1, label, labelStyle)
	w.set(2, amount.Round(2).InexactFloat64(), amountStyle)
	w.row++
}

// WriteExcel writes the workbook: the statement, every transaction of the
// year and, when there are warnings, the attention points.
func WriteExcel(out io.Writer, r *Report, txs []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	pnl := SheetPnL(r.FiscalYear)
	if err := f.SetSheetName("Sheet1", pnl); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writePnLSheet(f, pnl, r, st); err != nil {
		return fmt.Errorf("write %s: %w", pnl, err)
	}

	if _, err := f.NewSheet(SheetTransactions); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := writeTransactionsSheet(f, r.FiscalYear, txs, st); err != nil {
		return fmt.Errorf("write %s: %w", SheetTransactions, err)
	}

	if r.HasWarnings() {
		if _, err := f.NewSheet(SheetAttention); err != nil {
			return fmt.Errorf("add sheet: %w", err)
		}
		if err := writeAttentionSheet(f, r, st); err != nil {
			return fmt.Errorf("write %s: %w", SheetAttention, err)
		}
	}

	f.SetActiveSheet(0)
	return f.Write(out)
}

func writePnLSheet(f *excelize.File, sheet string, r *Report, st styles) error {
	w := &sheetWriter{f: f, sheet: sheet, row: 1}

	w.set(1, fmt.Sprintf("Resultatenrekening %d", r.FiscalYear), st.title)
	if err := f.MergeCell(sheet, "A1", "C1"); err != nil {
		return err
	}
	w.row = 3

	w.set(1, "Baten", st.bold)
	w.row++
	for _, item := range r.Income {
		w.amountRow("  "+displayLabel(item), item.Amount, 0, st.money)
		for _, sub := range item.SubItems {
			w.amountRow("    - "+sub.Label, sub.Amount, 0, st.money)
		}
	}
	w.amountRow("Totaal Baten", r.TotalIncome(), st.bold, st.boldMoney)
	w.row++

	w.set(1, "Kosten", st.bold)
	w.row++
	for _, item := range r.Expenses {
		w.amountRow("  "+displayLabel(item), item.Amount.Neg(), 0, st.money)
	}
	w.amountRow("Totaal Kosten", r.TotalExpenses().Neg(), st.bold, st.boldMoney)
	w.row++

	if len(r.Assets) > 0 {
		w.set(1, "Afschrijvingen", st.bold)
		w.row++
		for _, e := range r.Assets {
			w.amountRow("  "+e.AssetName, e.Amount, 0, st.money)
		}
		w.amountRow("Totaal Afschrijvingen", r.TotalDepreciation().Neg(), st.bold, st.boldMoney)
		w.row++
	}

	w.amountRow("Resultaat (Winst/Verlies)", r.ProfitLoss(), st.bold, st.boldMoney)
	w.row++

	if len(r.Disallowed) > 0 {
		w.set(1, "Verworpen Uitgaven", st.bold)
		w.row++
		for i, h := range []string{"Categorie", "Totaal bedrag", "% Aftrekbaar", "Aftrekbaar", "Verworpen"} {
			w.set(i+1, h, st.italic)
		}
		w.row++
		for _, d := range r.Disallowed {
			w.set(1, "  "+d.Label, 0)
			w.set(2, d.Total.Round(2).InexactFloat64(), st.money)
			w.set(3, fmt.Sprintf("%d%%", d.DeductiblePct), 0)
			w.set(4, d.Deductible.Round(2).InexactFloat64(), st.money)
			w.set(5, d.Disallowed.Round(2).InexactFloat64(), st.money)
			w.row++
		}
		w.set(1, "Totaal Verworpen Uitgaven", st.bold)
		w.set(5, r.TotalDisallowed().Round(2).InexactFloat64(), st.boldMoney)
		w.row += 2
	}

	if !r.UncategorizedTotal.IsZero() {
		w.set(1, fmt.Sprintf("Waarschuwing: %s aan niet-gecategoriseerde transacties (niet opgenomen in resultaat).",
			FormatEUR(r.UncategorizedTotal)), 0)
		w.row++
	}
	if !r.Private.Balance.IsZero() {
		w.set(1, fmt.Sprintf("Waarschuwing: Verkeerde rekening niet in balans (%s).", FormatEUR(r.Private.Balance)), 0)
		w.row++
	}
	if w.err != nil {
		return w.err
	}

	for col, width := range map[string]float64{"A": 40, "B": 15, "C": 12, "D": 15, "E": 15} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func writeTransactionsSheet(f *excelize.File, year int, all []models.Transaction, st styles) error {
	var txs []models.Transaction
	for _, tx := range all {
		if tx.BookingDate.Year() == year && !tx.IsExcluded {
			txs = append(txs, tx)
		}
	}
	sortByBookingDate(txs)

	w := &sheetWriter{f: f, sheet: SheetTransactions, row: 1}
	for i, h := range transactionHeaders {
		w.set(i+1, h, st.header)
	}
	w.row++

	for _, tx := range txs {
		therapeutic := "Nee"
		if tx.IsTherapeutic {
			therapeutic = "Ja"
		}
		values := []any{
			models.Deref(tx.OwnAccount),
			tx.BookingDate.Format("02/01/2006"),
			tx.ValueDate.Format("02/01/2006"),
			models.Deref(tx.StatementNumber),
			models.Deref(tx.TransactionNumber),
			models.Deref(tx.CounterpartyName),
			models.Deref(tx.CounterpartyIBAN),
			models.Deref(tx.CounterpartyStreet),
			models.Deref(tx.CounterpartyPostalCity),
			models.Deref(tx.CounterpartyBIC),
			models.Deref(tx.CounterpartyCountry),
			models.Deref(tx.Description),
			tx.Amount.InexactFloat64(),
			tx.Currency,
			models.Deref(tx.Category),
			therapeutic,
			tx.SourceFile,
		}
		for i, v := range values {
			style := st.cell
			if i == 12 {
				style = st.cellMoney
			}
			w.set(i+1, v, style)
		}
		w.row++
	}
	if w.err != nil {
		return w.err
	}

	for i, width := range transactionWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetTransactions, col, col, width); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(transactionHeaders))
	if err := f.AutoFilter(SheetTransactions, fmt.Sprintf("A1:%s%d", last, len(txs)+1), nil); err != nil {
		return err
	}
	return f.SetPanes(SheetTransactions, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeAttentionSheet(f *excelize.File, r *Report, st styles) error {
	w := &sheetWriter{f: f, sheet: SheetAttention, row: 1}
	w.set(1, fmt.Sprintf("Aandachtspunten - Boekjaar %d", r.FiscalYear), st.title)
	w.row = 3

	table := func(txs []models.Transaction) {
		for i, h := range []string{"Datum", "Bedrag", "Tegenpartij", "Omschrijving"} {
			w.set(i+1, h, st.header)
		}
		w.row++
		for _, tx := range txs {
			w.set(1, tx.BookingDate.Format("02/01/2006"), st.cell)
			w.set(2, tx.Amount.InexactFloat64(), st.cellMoney)
			w.set(3, truncate(models.Deref(tx.CounterpartyName), 40), st.cell)
			w.set(4, truncate(models.Deref(tx.Description), 60), st.cell)
			w.row++
		}
		w.row++
	}

	if !r.UncategorizedTotal.IsZero() {
		w.set(1, fmt.Sprintf("Niet-gecategoriseerde transacties: %d (%s)", r.UncategorizedCount, FormatEUR(r.UncategorizedTotal)), st.warning)
		w.row += 2
		table(r.Uncategorized)
		w.set(1, "Actie: Controleer en categoriseer deze transacties.", st.italic)
		w.row += 2
	}

	if !r.Private.Balance.IsZero() {
		w.set(1, fmt.Sprintf("Privé-uitgaven (verkeerde rekening) - Niet in balans: %s", FormatEUR(r.Private.Balance)), st.warning)
		w.row += 2
		table(r.Private.Unmatched)
		action := "Actie: Controleer of alle terugbetalingen correct zijn gecategoriseerd."
		if r.Private.Balance.IsNegative() {
			action = "Actie: Voeg ontbrekende terugbetalingen toe of corrigeer de categorisatie."
		}
		w.set(1, action, st.italic)
		w.row += 2
	}
	if w.err != nil {
		return w.err
	}

	for col, width := range map[string]float64{"A": 14, "B": 14, "C": 35, "D": 50} {
		if err := f.SetColWidth(SheetAttention, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
