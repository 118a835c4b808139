package models

import "strings"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeStandard AccountType = "standard"
	// AccountTypeMaatschap is a partnership account shared by two or more
	// partners. Its transactions are disambiguated by description first.
	AccountTypeMaatschap AccountType = "maatschap"
)

// MinPartners is the minimum number of partners on a partnership account.
const MinPartners = 2

// Partner is a co-owner of a partnership account.
type Partner struct {
	Name string `json:"name" yaml:"name"`
	IBAN string `json:"iban" yaml:"iban"`
}

// Account describes one funding source.
type Account struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	IBAN        string      `json:"iban" yaml:"iban"`
	AccountType AccountType `json:"account_type" yaml:"account_type"`
	Partners    []Partner   `json:"partners,omitempty" yaml:"partners,omitempty"`
}

// IsMaatschap reports whether this is a partnership account.
func (a Account) IsMaatschap() bool {
	return a.AccountType == AccountTypeMaatschap
}

// NormalizedIBAN returns the IBAN without spaces, upper-cased.
func (a Account) NormalizedIBAN() string {
	return NormalizeIBAN(a.IBAN)
}

// NormalizeIBAN strips spaces and upper-cases an account identifier.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}
