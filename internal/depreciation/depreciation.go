// Package depreciation computes straight-line, full-year depreciation for
// the asset register.
package depreciation

import (
	"time"

	"github.com/shopspring/decimal"

	"boekhouden/internal/models"
)

// Entry is one asset's depreciation within a fiscal year.
type Entry struct {
	AssetID            string          `json:"asset_id"`
	AssetName          string          `json:"asset_name"`
	FiscalYear         int             `json:"fiscal_year"`
	Amount             decimal.Decimal `json:"amount"`
	YearNumber         int             `json:"year_number"`
	RemainingBookValue decimal.Decimal `json:"remaining_book_value"`
	CategoryID         string          `json:"category_id"`
}

// InYear reports whether the asset is depreciated in year. The purchase
// year and the disposal year both count in full.
func InYear(a models.Asset, year int) bool {
	if year < a.FirstDepreciationYear() || year > a.LastDepreciationYear() {
		return false
	}
	if a.DisposalDate != nil && a.DisposalDate.Year() < year {
		return false
	}
	return true
}

// ForYear returns the entries for every asset depreciated in year, in
// input order.
func ForYear(assets []models.Asset, year int) []Entry {
	var entries []Entry
	for _, a := range assets {
		if !InYear(a, year) {
			continue
		}
		annual := a.AnnualDepreciation()
		n := year - a.FirstDepreciationYear() + 1
		remaining := a.PurchaseAmount.Sub(annual.Mul(decimal.NewFromInt(int64(n))))
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		entries = append(entries, Entry{
			AssetID:            a.ID,
			AssetName:          a.Name,
			FiscalYear:         year,
			Amount:             annual,
			YearNumber:         n,
			RemainingBookValue: remaining,
			CategoryID:         models.CategoryDepreciation,
		})
	}
	return entries
}

// Total sums the entry amounts.
func Total(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// BookValue is the value left at the end of year.
func BookValue(a models.Asset, year int) decimal.Decimal {
	switch {
	case year < a.FirstDepreciationYear():
		return a.PurchaseAmount
	case year >= a.LastDepreciationYear():
		return decimal.Zero
	}
	n := year - a.FirstDepreciationYear() + 1
	v := a.PurchaseAmount.Sub(a.AnnualDepreciation().Mul(decimal.NewFromInt(int64(n))))
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// Status derives the asset status at ref.
func Status(a models.Asset, ref time.Time) models.AssetStatus {
	switch {
	case a.DisposalDate != nil:
		return models.AssetStatusDisposed
	case ref.Year() > a.LastDepreciationYear():
		return models.AssetStatusFullyDepreciated
	}
	return models.AssetStatusActive
}
