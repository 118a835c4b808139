package models

// ImportError describes one row that could not be imported.
type ImportError struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
	Raw     string `json:"raw,omitempty"`
}

// ImportErrors is stored as a JSON text column through gorm's json
// serializer.
type ImportErrors []ImportError

// ImportSession summarises one statement import.
type ImportSession struct {
	Base
	SourceFile           string       `gorm:"not null" json:"source_file"`
	FiscalYear           int          `json:"fiscal_year,omitempty"`
	TransactionsImported int          `gorm:"not null;default:0" json:"transactions_imported"`
	TransactionsSkipped  int          `gorm:"not null;default:0" json:"transactions_skipped"`
	TransactionsExcluded int          `gorm:"not null;default:0" json:"transactions_excluded"`
	Errors               ImportErrors `gorm:"serializer:json;type:text" json:"errors"`
}

// HasErrors reports whether any row failed.
func (s *ImportSession) HasErrors() bool {
	return len(s.Errors) > 0
}
