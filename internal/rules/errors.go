package rules

import (
	"errors"
	"fmt"
)

// Causes of a ConfigError.
var (
	ErrInvalidPattern      = errors.New("invalid pattern")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrDuplicateRule       = errors.New("duplicate rule id")
	ErrInvalidMatchField   = errors.New("invalid match field")
	ErrTherapeuticCategory = errors.New("therapeutic flag on non-revenue category")
	ErrMissingID           = errors.New("rule id is empty")
)

// ConfigError identifies the rule that made a rule set invalid.
type ConfigError struct {
	RuleID string
	Kind   error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("rule %q: %v", e.RuleID, e.Kind)
	}
	return fmt.Sprintf("rule %q: %v: %s", e.RuleID, e.Kind, e.Detail)
}

// Unwrap returns the cause so that errors.Is(err, ErrUnknownCategory) works.
func (e *ConfigError) Unwrap() error { return e.Kind }
