package models

// PatternType selects how a rule pattern is compared with a field value.
type PatternType string

const (
	PatternTypeExact    PatternType = "exact"
	PatternTypePrefix   PatternType = "prefix"
	PatternTypeContains PatternType = "contains"
	PatternTypeRegex    PatternType = "regex"
)

// MatchField names the transaction field a rule inspects.
type MatchField string

const (
	MatchFieldCounterpartyName MatchField = "counterparty_name"
	MatchFieldDescription      MatchField = "description"
	MatchFieldCounterpartyIBAN MatchField = "counterparty_iban"
)

// IsValid reports whether the match field is known.
func (f MatchField) IsValid() bool {
	switch f {
	case MatchFieldCounterpartyName, MatchFieldDescription, MatchFieldCounterpartyIBAN:
		return true
	}
	return false
}

// RuleSource records where a rule came from.
type RuleSource string

const (
	RuleSourceExtracted RuleSource = "extracted"
	RuleSourceManual    RuleSource = "manual"
)

// CategoryRule assigns TargetCategory to transactions whose MatchField
// matches Pattern. Lower Priority values are evaluated first.
type CategoryRule struct {
	ID             string      `json:"id" yaml:"id"`
	Pattern        string      `json:"pattern" yaml:"pattern"`
	PatternType    PatternType `json:"pattern_type" yaml:"pattern_type"`
	MatchField     MatchField  `json:"match_field" yaml:"match_field"`
	TargetCategory string      `json:"target_category" yaml:"target_category"`
	Priority       int         `json:"priority" yaml:"priority"`
	IsTherapeutic  *bool       `json:"is_therapeutic,omitempty" yaml:"is_therapeutic,omitempty"`
	Enabled        bool        `json:"enabled" yaml:"enabled"`
	Source         RuleSource  `json:"source" yaml:"source"`
	Notes          string      `json:"notes,omitempty" yaml:"notes,omitempty"`
}
