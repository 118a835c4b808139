// Package report builds the yearly profit and loss statement and renders
// it for the console, Excel and PDF.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"boekhouden/internal/depreciation"
	"boekhouden/internal/models"
)

// Sub-item labels of the revenue line.
const (
	LabelTherapeutic    = "Therapeutisch (BTW-vrijgesteld art. 44)"
	LabelNonTherapeutic = "Niet-therapeutisch"
)

// alwaysExcluded never reach the P&L regardless of their configured type.
var alwaysExcluded = []string{
	models.CategoryOwnerWithdrawal,
	models.CategorySalary,
	models.CategoryPrivateExpense,
	models.CategoryPrivateMatched,
	models.CategoryInternalDeposit,
	models.CategoryMastercard,
}

// LineItem is one row of the statement. Amounts keep their sign: income
// positive, expenses negative.
type LineItem struct {
	CategoryID string          `json:"category_id,omitempty"`
	Label      string          `json:"label"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	SubItems   []LineItem      `json:"sub_items,omitempty"`
}

// DisallowedItem is the non-deductible part of a partially deductible
// expense category ("verworpen uitgaven").
type DisallowedItem struct {
	CategoryID    string          `json:"category_id"`
	Label         string          `json:"label"`
	Total         decimal.Decimal `json:"total"`
	DeductiblePct int             `json:"deductible_pct"`
	Deductible    decimal.Decimal `json:"deductible"`
	Disallowed    decimal.Decimal `json:"disallowed"`
}

// PrivateBalance tracks private expenses paid from the business account.
// A zero balance means every expense was reimbursed.
type PrivateBalance struct {
	Balance      decimal.Decimal      `json:"balance"`
	Count        int                  `json:"count"`
	MatchedPairs int                  `json:"matched_pairs"`
	Unmatched    []models.Transaction `json:"unmatched"`
}

// Report is the P&L for one fiscal year.
type Report struct {
	FiscalYear int                  `json:"fiscal_year"`
	Income     []LineItem           `json:"income"`
	Expenses   []LineItem           `json:"expenses"`
	Assets     []depreciation.Entry `json:"depreciation"`

	UncategorizedCount int                  `json:"uncategorized_count"`
	UncategorizedTotal decimal.Decimal      `json:"uncategorized_total"`
	Uncategorized      []models.Transaction `json:"uncategorized"`

	Disallowed []DisallowedItem `json:"disallowed"`
	Private    PrivateBalance   `json:"private"`
}

// Input gathers what Build needs.
type Input struct {
	Year         int
	Transactions []models.Transaction
	Assets       []models.Asset
	Categories   []models.Category
	Decisions    []models.MatchDecision

	// RevenueCategory and PrivateCategory default to the well-known ids.
	RevenueCategory string
	PrivateCategory string
}

// Build computes the statement from transactions booked in in.Year.
// Excluded transactions are ignored entirely.
func Build(in Input) *Report {
	revenue := in.RevenueCategory
	if revenue == "" {
		revenue = models.CategoryRevenue
	}
	private := in.PrivateCategory
	if private == "" {
		private = models.CategoryPrivateExpense
	}

	cats := make(map[string]models.Category, len(in.Categories))
	excluded := make(map[string]bool, len(alwaysExcluded))
	for _, id := range alwaysExcluded {
		excluded[id] = true
	}
	excluded[private] = true
	for _, c := range in.Categories {
		cats[c.ID] = c
		if c.Type == models.CategoryTypeExcluded {
			excluded[c.ID] = true
		}
	}
	label := func(id string) string {
		if c, ok := cats[id]; ok && c.Name != "" {
			return c.Name
		}
		return id
	}

	r := &Report{
		FiscalYear:         in.Year,
		UncategorizedTotal: decimal.Zero,
		Private:            PrivateBalance{Balance: decimal.Zero},
	}

	var txs []models.Transaction
	for _, tx := range in.Transactions {
		if tx.BookingDate.Year() == in.Year && !tx.IsExcluded {
			txs = append(txs, tx)
		}
	}
	sortByBookingDate(txs)

	income := LineItem{CategoryID: revenue, Label: label(revenue), Amount: decimal.Zero}
	thera, nonThera := decimal.Zero, decimal.Zero
	expenses := make(map[string]*LineItem)
	byCategory := make(map[string]decimal.Decimal)
	var privateTxs []models.Transaction

	for _, tx := range txs {
		if !tx.IsCategorized() {
			r.UncategorizedCount++
			r.UncategorizedTotal = r.UncategorizedTotal.Add(tx.Amount)
			r.Uncategorized = append(r.Uncategorized, tx)
			continue
		}
		cat := *tx.Category
		byCategory[cat] = byCategory[cat].Add(tx.Amount)

		switch {
		case cat == revenue:
			income.Amount = income.Amount.Add(tx.Amount)
			income.Count++
			if tx.IsTherapeutic {
				thera = thera.Add(tx.Amount)
			} else {
				nonThera = nonThera.Add(tx.Amount)
			}
		case cat == private:
			privateTxs = append(privateTxs, tx)
		case excluded[cat]:
		default:
			item, ok := expenses[cat]
			if !ok {
				item = &LineItem{CategoryID: cat, Label: label(cat), Amount: decimal.Zero}
				expenses[cat] = item
			}
			item.Amount = item.Amount.Add(tx.Amount)
			item.Count++
		}
	}

	if income.Count > 0 {
		if thera.IsPositive() {
			income.SubItems = append(income.SubItems, LineItem{Label: LabelTherapeutic, Amount: thera})
		}
		if nonThera.IsPositive() {
			income.SubItems = append(income.SubItems, LineItem{Label: LabelNonTherapeutic, Amount: nonThera})
		}
		r.Income = append(r.Income, income)
	}

	for _, item := range expenses {
		r.Expenses = append(r.Expenses, *item)
	}
	sort.Slice(r.Expenses, func(i, j int) bool { return r.Expenses[i].CategoryID < r.Expenses[j].CategoryID })

	r.Assets = depreciation.ForYear(in.Assets, in.Year)

	for _, c := range in.Categories {
		sum, ok := byCategory[c.ID]
		if !ok || !c.IsPartiallyDeductible() || c.Type != models.CategoryTypeExpense {
			continue
		}
		total := sum.Abs()
		deductible := total.Mul(decimal.NewFromInt(int64(c.DeductibilityPct))).Div(decimal.NewFromInt(100))
		r.Disallowed = append(r.Disallowed, DisallowedItem{
			CategoryID:    c.ID,
			Label:         label(c.ID),
			Total:         total,
			DeductiblePct: c.DeductibilityPct,
			Deductible:    deductible,
			Disallowed:    total.Sub(deductible),
		})
	}
	sort.Slice(r.Disallowed, func(i, j int) bool { return r.Disallowed[i].Label < r.Disallowed[j].Label })

	r.Private = privateBalance(privateTxs, in.Decisions)
	return r
}

func privateBalance(txs []models.Transaction, decisions []models.MatchDecision) PrivateBalance {
	pool := make(map[string]bool, len(txs))
	for _, tx := range txs {
		pool[tx.ID] = true
	}
	matched := make(map[string]bool)
	pairs := 0
	for _, d := range decisions {
		if !d.Status.IsActive() || !pool[d.ExpenseID] || !pool[d.ReimbursementID] {
			continue
		}
		pairs++
		matched[d.ExpenseID] = true
		matched[d.ReimbursementID] = true
	}

	pb := PrivateBalance{Balance: decimal.Zero, Count: len(txs), MatchedPairs: pairs}
	for _, tx := range txs {
		pb.Balance = pb.Balance.Add(tx.Amount)
		if !matched[tx.ID] {
			pb.Unmatched = append(pb.Unmatched, tx)
		}
	}
	return pb
}

// TotalIncome sums the income lines.
func (r *Report) TotalIncome() decimal.Decimal {
	return sumItems(r.Income)
}

// TotalExpenses sums the operational expense lines (negative).
func (r *Report) TotalExpenses() decimal.Decimal {
	return sumItems(r.Expenses)
}

// TotalDepreciation is the depreciation charge, negative.
func (r *Report) TotalDepreciation() decimal.Decimal {
	return depreciation.Total(r.Assets).Neg()
}

// ProfitLoss is income plus expenses plus depreciation.
func (r *Report) ProfitLoss() decimal.Decimal {
	return r.TotalIncome().Add(r.TotalExpenses()).Add(r.TotalDepreciation())
}

// TotalDisallowed sums the non-deductible parts.
func (r *Report) TotalDisallowed() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Disallowed {
		total = total.Add(d.Disallowed)
	}
	return total
}

// HasWarnings reports uncategorized money or an unbalanced private account.
func (r *Report) HasWarnings() bool {
	return !r.UncategorizedTotal.IsZero() || !r.Private.Balance.IsZero()
}

func sortByBookingDate(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].BookingDate.Before(txs[j].BookingDate) })
}

func sumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}
