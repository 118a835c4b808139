package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetSource records how an asset entered the register.
type AssetSource string

const (
	AssetSourceManual      AssetSource = "manual"
	AssetSourceExcelImport AssetSource = "excel_import"
)

// AssetStatus is derived from the asset dates, never stored.
type AssetStatus string

const (
	AssetStatusActive           AssetStatus = "active"
	AssetStatusFullyDepreciated AssetStatus = "fully_depreciated"
	AssetStatusDisposed         AssetStatus = "disposed"
)

// Depreciation bounds in years.
const (
	MinDepreciationYears = 1
	MaxDepreciationYears = 10
)

// Asset is a business purchase written off over several years.
type Asset struct {
	ID                string          `gorm:"primaryKey" json:"id"`
	Name              string          `gorm:"not null" json:"name"`
	PurchaseDate      time.Time       `gorm:"not null" json:"purchase_date"`
	PurchaseAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"purchase_amount"`
	DepreciationYears int             `gorm:"not null" json:"depreciation_years"`
	DisposalDate      *time.Time      `json:"disposal_date,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	Source            AssetSource     `gorm:"not null;default:'manual'" json:"source"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// FirstDepreciationYear is the purchase year.
func (a Asset) FirstDepreciationYear() int {
	return a.PurchaseDate.Year()
}

// LastDepreciationYear ignores any disposal.
func (a Asset) LastDepreciationYear() int {
	return a.PurchaseDate.Year() + a.DepreciationYears - 1
}

// AnnualDepreciation is the straight-line yearly amount.
func (a Asset) AnnualDepreciation() decimal.Decimal {
	if a.DepreciationYears <= 0 {
		return decimal.Zero
	}
	return a.PurchaseAmount.Div(decimal.NewFromInt(int64(a.DepreciationYears)))
}
