package rules

import (
	"errors"
	"testing"

	"boekhouden/internal/models"
)

func testCategories() []models.Category {
	return []models.Category{
		{ID: "omzet", Name: "Omzet", Type: models.CategoryTypeIncome, DeductibilityPct: 100},
		{ID: "telefonie", Name: "Telefonie", Type: models.CategoryTypeExpense, DeductibilityPct: 100},
		{ID: "restaurant", Name: "Restaurant", Type: models.CategoryTypeExpense, DeductibilityPct: 69},
	}
}

func rule(id, pattern string, field models.MatchField, category string, priority int) models.CategoryRule {
	return models.CategoryRule{
		ID:             id,
		Pattern:        pattern,
		PatternType:    models.PatternTypeContains,
		MatchField:     field,
		TargetCategory: category,
		Priority:       priority,
		Enabled:        true,
		Source:         models.RuleSourceManual,
	}
}

func TestNewRuleSet(t *testing.T) {
	t.Run("orders by priority then id", func(t *testing.T) {
		rs, err := NewRuleSet([]models.CategoryRule{
			rule("rule-c", "c", models.MatchFieldCounterpartyName, "telefonie", 20),
			rule("rule-b", "b", models.MatchFieldCounterpartyName, "telefonie", 10),
			rule("rule-a", "a", models.MatchFieldCounterpartyName, "telefonie", 20),
		}, testCategories(), "omzet")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := []string{}
		for _, r := range rs.Rules() {
			got = append(got, r.ID)
		}
		want := []string{"rule-b", "rule-a", "rule-c"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	})

	t.Run("buckets by match field", func(t *testing.T) {
		rs, err := NewRuleSet([]models.CategoryRule{
			rule("d1", "verdeling", models.MatchFieldDescription, "omzet", 5),
			rule("c1", "proximus", models.MatchFieldCounterpartyName, "telefonie", 10),
			rule("i1", "BE12", models.MatchFieldCounterpartyIBAN, "telefonie", 1),
		}, testCategories(), "omzet")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rs.DescriptionRules()) != 1 || rs.DescriptionRules()[0].ID != "d1" {
			t.Errorf("unexpected description rules: %v", rs.DescriptionRules())
		}
		if len(rs.CounterpartyRules()) != 2 || rs.CounterpartyRules()[0].ID != "i1" {
			t.Errorf("unexpected counterparty rules: %v", rs.CounterpartyRules())
		}
	})

	t.Run("skips disabled rules", func(t *testing.T) {
		r := rule("off", "(broken", models.MatchFieldDescription, "nonexistent", 1)
		r.Enabled = false
		r.PatternType = models.PatternTypeRegex

		rs, err := NewRuleSet([]models.CategoryRule{r}, testCategories(), "omzet")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rs.Len() != 0 {
			t.Errorf("expected no enabled rules, got %d", rs.Len())
		}
	})

	t.Run("unknown category fails", func(t *testing.T) {
		_, err := NewRuleSet([]models.CategoryRule{
			rule("rule-x", "x", models.MatchFieldCounterpartyName, "nonexistent-cat", 1),
		}, testCategories(), "omzet")
		if !errors.Is(err, ErrUnknownCategory) {
			t.Fatalf("expected ErrUnknownCategory, got %v", err)
		}

		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.RuleID != "rule-x" {
			t.Errorf("expected ConfigError naming rule-x, got %v", err)
		}
	})

	t.Run("invalid regex fails", func(t *testing.T) {
		r := rule("rule-re", "[a-", models.MatchFieldDescription, "omzet", 1)
		r.PatternType = models.PatternTypeRegex
		_, err := NewRuleSet([]models.CategoryRule{r}, testCategories(), "omzet")
		if !errors.Is(err, ErrInvalidPattern) {
			t.Fatalf("expected ErrInvalidPattern, got %v", err)
		}
	})

	t.Run("duplicate id fails", func(t *testing.T) {
		_, err := NewRuleSet([]models.CategoryRule{
			rule("dup", "a", models.MatchFieldCounterpartyName, "telefonie", 1),
			rule("dup", "b", models.MatchFieldCounterpartyName, "telefonie", 2),
		}, testCategories(), "omzet")
		if !errors.Is(err, ErrDuplicateRule) {
			t.Fatalf("expected ErrDuplicateRule, got %v", err)
		}
	})

	t.Run("therapeutic on non-revenue fails", func(t *testing.T) {
		yes := true
		r := rule("thera", "vroedvrouw", models.MatchFieldCounterpartyName, "telefonie", 1)
		r.IsTherapeutic = &yes
		_, err := NewRuleSet([]models.CategoryRule{r}, testCategories(), "omzet")
		if !errors.Is(err, ErrTherapeuticCategory) {
			t.Fatalf("expected ErrTherapeuticCategory, got %v", err)
		}
	})

	t.Run("reports every invalid rule", func(t *testing.T) {
		_, err := NewRuleSet([]models.CategoryRule{
			rule("a", "a", models.MatchFieldCounterpartyName, "missing-1", 1),
			rule("b", "b", "iban", "telefonie", 2),
		}, testCategories(), "omzet")
		if !errors.Is(err, ErrUnknownCategory) || !errors.Is(err, ErrInvalidMatchField) {
			t.Fatalf("expected both errors to be reported, got %v", err)
		}
	})
}

func TestRuleSetMatching(t *testing.T) {
	rs, err := NewRuleSet([]models.CategoryRule{
		rule("late", "proximus", models.MatchFieldCounterpartyName, "telefonie", 50),
		rule("early", "prox", models.MatchFieldCounterpartyName, "restaurant", 10),
		rule("desc", "proximus", models.MatchFieldDescription, "telefonie", 1),
	}, testCategories(), "omzet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx := &models.Transaction{CounterpartyName: strPtr("PROXIMUS NV")}

	first := FirstMatch(tx, rs.CounterpartyRules())
	if first == nil || first.ID != "early" {
		t.Fatalf("expected rule early, got %v", first)
	}

	all := rs.Matching(tx)
	if len(all) != 2 {
		t.Fatalf("expected 2 matching rules, got %d", len(all))
	}

	if FirstMatch(tx, rs.DescriptionRules()) != nil {
		t.Error("expected no description match for a transaction without description")
	}
}
