// Package rules compiles categorization rules into an ordered, validated
// rule set. Patterns are compiled once when the set is built; matching a
// transaction never fails.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"boekhouden/internal/models"
)

// Pattern is a compiled rule pattern. The zero value matches nothing.
type Pattern struct {
	kind models.PatternType
	text string
	re   *regexp.Regexp
}

// CompilePattern validates raw for the given pattern type. Regular
// expressions are compiled case-insensitively; the other kinds keep a
// lower-cased copy of the pattern.
func CompilePattern(kind models.PatternType, raw string) (Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return Pattern{}, errors.New("pattern is empty")
	}

	switch kind {
	case models.PatternTypeExact, models.PatternTypePrefix, models.PatternTypeContains:
		return Pattern{kind: kind, text: strings.ToLower(raw)}, nil
	case models.PatternTypeRegex:
		re, err := regexp.Compile("(?i)" + raw)
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid regex %q: %w", raw, err)
		}
		return Pattern{kind: kind, text: raw, re: re}, nil
	}
	return Pattern{}, fmt.Errorf("unknown pattern type %q", kind)
}

// Match reports whether value satisfies the pattern. A nil value never
// matches. Regular expressions search anywhere in the value.
func (p Pattern) Match(value *string) bool {
	if value == nil {
		return false
	}
	switch p.kind {
	case models.PatternTypeExact:
		return strings.ToLower(*value) == p.text
	case models.PatternTypePrefix:
		return strings.HasPrefix(strings.ToLower(*value), p.text)
	case models.PatternTypeContains:
		return strings.Contains(strings.ToLower(*value), p.text)
	case models.PatternTypeRegex:
		return p.re.MatchString(*value)
	}
	return false
}
