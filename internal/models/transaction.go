package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType identifies where a transaction was imported from.
type SourceType string

const (
	SourceTypeBankCSV       SourceType = "bank_csv"
	SourceTypeMastercardPDF SourceType = "mastercard_pdf"
)

// Transaction is one movement on a bank or credit-card statement.
//
// A manual override never carries a MatchedRuleID, and IsTherapeutic is only
// ever set on revenue transactions.
type Transaction struct {
	ID                string     `gorm:"primaryKey" json:"id"`
	SourceFile        string     `json:"source_file"`
	SourceType        SourceType `gorm:"not null;default:'bank_csv'" json:"source_type"`
	StatementNumber   *string    `json:"statement_number,omitempty"`
	TransactionNumber *string    `json:"transaction_number,omitempty"`

	BookingDate time.Time       `gorm:"not null;index" json:"booking_date"`
	ValueDate   time.Time       `gorm:"not null" json:"value_date"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string          `gorm:"not null;default:'EUR'" json:"currency"`
	FiscalYear  int             `gorm:"not null;index" json:"fiscal_year"`

	CounterpartyName       *string `json:"counterparty_name,omitempty"`
	CounterpartyIBAN       *string `gorm:"column:counterparty_iban" json:"counterparty_iban,omitempty"`
	CounterpartyStreet     *string `json:"counterparty_street,omitempty"`
	CounterpartyPostalCity *string `json:"counterparty_postal_city,omitempty"`
	CounterpartyBIC        *string `gorm:"column:counterparty_bic" json:"counterparty_bic,omitempty"`
	CounterpartyCountry    *string `json:"counterparty_country,omitempty"`
	OwnAccount             *string `json:"own_account,omitempty"`
	Description            *string `json:"description,omitempty"`
	Communication          *string `json:"communication,omitempty"`

	Category         *string `gorm:"index" json:"category"`
	MatchedRuleID    *string `json:"matched_rule_id"`
	IsManualOverride bool    `gorm:"not null;default:false" json:"is_manual_override"`
	IsTherapeutic    bool    `gorm:"not null;default:false" json:"is_therapeutic"`
	IsExcluded       bool    `gorm:"not null;default:false" json:"is_excluded"`
	ExclusionReason  *string `json:"exclusion_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Field returns the value of the field a rule matches against.
// Unknown fields yield nil.
func (t *Transaction) Field(field MatchField) *string {
	switch field {
	case MatchFieldCounterpartyName:
		return t.CounterpartyName
	case MatchFieldCounterpartyIBAN:
		return t.CounterpartyIBAN
	case MatchFieldDescription:
		return t.Description
	}
	return nil
}

// IsCategorized reports whether a category has been assigned.
func (t *Transaction) IsCategorized() bool {
	return t.Category != nil && *t.Category != ""
}

// HasCategory reports whether the transaction carries the given category.
func (t *Transaction) HasCategory(id string) bool {
	return t.Category != nil && *t.Category == id
}

// IsExpense reports whether money left the account.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether money entered the account.
func (t *Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// Str returns a pointer to s, or nil for the empty string.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
