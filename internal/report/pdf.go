package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// PDFOptions sets the document header.
type PDFOptions struct {
	Company   string
	Generated time.Time
}

const (
	pdfLabelWidth  = 120
	pdfAmountWidth = 50
	pdfRowHeight   = 7
)

type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// WritePDF renders the statement as an A4 management report.
func WritePDF(out io.Writer, r *Report, opts PDFOptions) error {
	if opts.Generated.IsZero() {
		opts.Generated = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	title := fmt.Sprintf("Resultatenrekening %d", r.FiscalYear)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(opts.Company, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Pagina %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, w.tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if opts.Company != "" {
		pdf.CellFormat(0, 6, w.tr(opts.Company), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Opgemaakt op "+opts.Generated.Format("02/01/2006"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	w.section("Baten")
	for _, item := range r.Income {
		w.row("  "+displayLabel(item), item.Amount, false)
		for _, sub := range item.SubItems {
			w.row("      "+sub.Label, sub.Amount, false)
		}
	}
	w.row("Totaal Baten", r.TotalIncome(), true)
	pdf.Ln(4)

	w.section("Kosten")
	for _, item := range r.Expenses {
		w.row("  "+displayLabel(item), item.Amount.Neg(), false)
	}
	w.row("Totaal Kosten", r.TotalExpenses().Neg(), true)
	pdf.Ln(4)

	if len(r.Assets) > 0 {
		w.section("Afschrijvingen")
		for _, e := range r.Assets {
			w.row(fmt.Sprintf("  %s (jaar %d)", e.AssetName, e.YearNumber), e.Amount, false)
		}
		w.row("Totaal Afschrijvingen", r.TotalDepreciation().Neg(), true)
		pdf.Ln(4)
	}

	pdf.SetFillColor(44, 82, 130)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 12)
	outcome := "Winst"
	if r.ProfitLoss().IsNegative() {
		outcome = "Verlies"
	}
	pdf.CellFormat(pdfLabelWidth, 9, w.tr(fmt.Sprintf(" Resultaat (%s)", outcome)), "", 0, "L", true, 0, "")
	pdf.CellFormat(pdfAmountWidth, 9, w.tr(FormatEUR(r.ProfitLoss())+" "), "", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	if len(r.Disallowed) > 0 {
		w.section("Verworpen Uitgaven")
		pdf.SetFont("Helvetica", "I", 9)
		cols := []float64{60, 30, 25, 30, 30}
		for i, h := range []string{"Categorie", "Totaal", "% Aftrekbaar", "Aftrekbaar", "Verworpen"} {
			pdf.CellFormat(cols[i], pdfRowHeight, h, "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, d := range r.Disallowed {
			pdf.CellFormat(cols[0], pdfRowHeight, w.tr(d.Label), "", 0, "L", false, 0, "")
			pdf.CellFormat(cols[1], pdfRowHeight, w.tr(FormatEUR(d.Total)), "", 0, "R", false, 0, "")
			pdf.CellFormat(cols[2], pdfRowHeight, fmt.Sprintf("%d%%", d.DeductiblePct), "", 0, "R", false, 0, "")
			pdf.CellFormat(cols[3], pdfRowHeight, w.tr(FormatEUR(d.Deductible)), "", 0, "R", false, 0, "")
			pdf.CellFormat(cols[4], pdfRowHeight, w.tr(FormatEUR(d.Disallowed)), "", 1, "R", false, 0, "")
		}
		w.row("Totaal Verworpen", r.TotalDisallowed(), true)
		pdf.Ln(4)
	}

	if r.HasWarnings() {
		w.section("Aandachtspunten")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(146, 64, 14)
		if !r.UncategorizedTotal.IsZero() {
			pdf.MultiCell(0, 6, w.tr(fmt.Sprintf("%d niet-gecategoriseerde transacties voor %s. Het resultaat is exclusief deze transacties.",
				r.UncategorizedCount, FormatEUR(r.UncategorizedTotal))), "", "L", false)
		}
		if !r.Private.Balance.IsZero() {
			pdf.MultiCell(0, 6, w.tr(fmt.Sprintf("Verkeerde rekening niet in balans: %s (%d gekoppelde paren, %d open verrichtingen).",
				FormatEUR(r.Private.Balance), r.Private.MatchedPairs, len(r.Private.Unmatched))), "", "L", false)
		}
		pdf.SetTextColor(0, 0, 0)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(out)
}

func (w *pdfWriter) section(title string) {
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.CellFormat(pdfLabelWidth+pdfAmountWidth, 8, w.tr(title), "B", 1, "L", false, 0, "")
	w.pdf.Ln(1)
}

func (w *pdfWriter) row(label string, amount decimal.Decimal, total bool) {
	style, border := "", ""
	if total {
		style, border = "B", "T"
	}
	w.pdf.SetFont("Helvetica", style, 10)
	w.pdf.CellFormat(pdfLabelWidth, pdfRowHeight, w.tr(label), border, 0, "L", false, 0, "")
	w.pdf.CellFormat(pdfAmountWidth, pdfRowHeight, w.tr(FormatEUR(amount)), border, 1, "R", false, 0, "")
}
