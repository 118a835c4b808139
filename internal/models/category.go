package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "income"
	CategoryTypeExpense  CategoryType = "expense"
	CategoryTypeExcluded CategoryType = "excluded"
)

// IsValid reports whether the category type is known.
func (t CategoryType) IsValid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeExcluded:
		return true
	}
	return false
}

// Well-known category ids.
const (
	CategoryRevenue         = "omzet"
	CategoryPrivateExpense  = "verkeerde-rekening"
	CategoryPrivateMatched  = "verkeerde-rekening-matched"
	CategoryDepreciation    = "afschrijvingen"
	CategoryOwnerWithdrawal = "prive-opname"
	CategorySalary          = "loon"
	CategoryInternalDeposit = "interne-storting"
	CategoryMastercard      = "mastercard"
)

// Category is a classification unit for the P&L. Categories are loaded from
// configuration and never change during a run.
type Category struct {
	ID               string       `json:"id" yaml:"id"`
	Name             string       `json:"name" yaml:"name"`
	Type             CategoryType `json:"type" yaml:"type"`
	TaxDeductible    bool         `json:"tax_deductible" yaml:"tax_deductible"`
	DeductibilityPct int          `json:"deductibility_pct" yaml:"deductibility_pct"`
	Description      string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsPartiallyDeductible reports whether only part of the expense is deductible.
func (c Category) IsPartiallyDeductible() bool {
	return c.DeductibilityPct < 100
}
