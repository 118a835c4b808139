package rules

import (
	"errors"
	"sort"

	"boekhouden/internal/models"
)

// Rule is an enabled rule with its compiled pattern.
type Rule struct {
	models.CategoryRule
	pattern Pattern
}

// Matches reports whether the rule's pattern matches the transaction field
// the rule inspects.
func (r *Rule) Matches(tx *models.Transaction) bool {
	return r.pattern.Match(tx.Field(r.MatchField))
}

// RuleSet is an immutable, priority-ordered collection of enabled rules.
// Rules with equal priority are ordered by id so that first-match-wins is a
// total order.
type RuleSet struct {
	rules        []*Rule
	description  []*Rule
	counterparty []*Rule
	revenue      string
}

// NewRuleSet validates rules against the known categories and compiles
// them. Every problem is reported, joined, as *ConfigError values:
//
//   - ids must be non-empty and unique across enabled and disabled rules
//   - enabled rules must reference a known category, use a known match
//     field and carry a compilable pattern
//   - a therapeutic rule must target the revenue category
//
// Disabled rules are only checked for id uniqueness and are not part of the
// resulting set.
func NewRuleSet(rules []models.CategoryRule, categories []models.Category, revenueCategory string) (*RuleSet, error) {
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}

	var errs []error
	seen := make(map[string]bool, len(rules))
	compiled := make([]*Rule, 0, len(rules))

	for _, r := range rules {
		if r.ID == "" {
			errs = append(errs, &ConfigError{RuleID: r.Pattern, Kind: ErrMissingID})
			continue
		}
		if seen[r.ID] {
			errs = append(errs, &ConfigError{RuleID: r.ID, Kind: ErrDuplicateRule})
			continue
		}
		seen[r.ID] = true

		if !r.Enabled {
			continue
		}

		if !known[r.TargetCategory] {
			errs = append(errs, &ConfigError{RuleID: r.ID, Kind: ErrUnknownCategory, Detail: r.TargetCategory})
			continue
		}
		if !r.MatchField.IsValid() {
			errs = append(errs, &ConfigError{RuleID: r.ID, Kind: ErrInvalidMatchField, Detail: string(r.MatchField)})
			continue
		}
		if r.IsTherapeutic != nil && *r.IsTherapeutic && r.TargetCategory != revenueCategory {
			errs = append(errs, &ConfigError{RuleID: r.ID, Kind: ErrTherapeuticCategory, Detail: r.TargetCategory})
			continue
		}
		p, err := CompilePattern(r.PatternType, r.Pattern)
		if err != nil {
			errs = append(errs, &ConfigError{RuleID: r.ID, Kind: ErrInvalidPattern, Detail: err.Error()})
			continue
		}

		compiled = append(compiled, &Rule{CategoryRule: r, pattern: p})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].Priority != compiled[j].Priority {
			return compiled[i].Priority < compiled[j].Priority
		}
		return compiled[i].ID < compiled[j].ID
	})

	rs := &RuleSet{rules: compiled, revenue: revenueCategory}
	for _, r := range compiled {
		if r.MatchField == models.MatchFieldDescription {
			rs.description = append(rs.description, r)
		} else {
			rs.counterparty = append(rs.counterparty, r)
		}
	}
	return rs, nil
}

// Len returns the number of enabled rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// RevenueCategory is the only category a therapeutic flag may accompany.
func (rs *RuleSet) RevenueCategory() string { return rs.revenue }

// Rules returns the enabled rules in evaluation order.
func (rs *RuleSet) Rules() []*Rule { return rs.rules }

// DescriptionRules returns the rules matching on description, in order.
func (rs *RuleSet) DescriptionRules() []*Rule { return rs.description }

// CounterpartyRules returns the rules matching on counterparty name or
// account, in order.
func (rs *RuleSet) CounterpartyRules() []*Rule { return rs.counterparty }

// FirstMatch returns the first rule in candidates that matches tx, or nil.
func FirstMatch(tx *models.Transaction, candidates []*Rule) *Rule {
	for _, r := range candidates {
		if r.Matches(tx) {
			return r
		}
	}
	return nil
}

// Matching returns every enabled rule that matches tx, in evaluation order.
func (rs *RuleSet) Matching(tx *models.Transaction) []*Rule {
	var out []*Rule
	for _, r := range rs.rules {
		if r.Matches(tx) {
			out = append(out, r)
		}
	}
	return out
}
