package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"boekhouden/internal/config"
	"boekhouden/internal/models"
	"boekhouden/internal/testutil"
)

func TestAddRule(t *testing.T) {
	t.Run("defaults and next id", func(t *testing.T) {
		reg := testutil.TestRegistry(t)
		svc := NewRuleService(reg, config.BooksConfig{})

		rule, err := svc.AddRule(models.CategoryRule{Pattern: "Le Pain Quotidien", TargetCategory: "restaurant"})
		testutil.AssertNoError(t, err)

		if rule.ID != "rule-005" {
			t.Errorf("expected rule-005, got %s", rule.ID)
		}
		if rule.PatternType != models.PatternTypeContains || rule.MatchField != models.MatchFieldCounterpartyName ||
			rule.Source != models.RuleSourceManual || rule.Priority != 100 || !rule.Enabled {
			t.Errorf("unexpected defaults %+v", rule)
		}
		if got, ok := reg.Rule("rule-005"); !ok || got.Pattern != "Le Pain Quotidien" {
			t.Errorf("expected rule in registry, got %+v", got)
		}
		if _, err := os.Stat(filepath.Join(reg.Dir(), config.RulesFile)); err != nil {
			t.Errorf("expected rules file to be written: %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		reg := testutil.TestRegistry(t)
		svc := NewRuleService(reg, config.BooksConfig{})

		tests := []struct {
			name string
			rule models.CategoryRule
			code string
		}{
			{"missing pattern", models.CategoryRule{TargetCategory: "restaurant"}, "INVALID_INPUT"},
			{"duplicate id", models.CategoryRule{ID: "rule-001", Pattern: "x", TargetCategory: "restaurant"}, "DUPLICATE_RULE"},
			{"invalid regex", models.CategoryRule{Pattern: "(", PatternType: models.PatternTypeRegex, TargetCategory: "restaurant"}, "INVALID_CONFIG"},
			{"unknown category", models.CategoryRule{Pattern: "x", TargetCategory: "boekhouding"}, "INVALID_CONFIG"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.AddRule(tt.rule)
				testutil.AssertAppError(t, err, tt.code)
			})
		}

		if n := len(svc.ListRules()); n != len(testutil.TestRules()) {
			t.Errorf("failed adds must not change the rules, got %d", n)
		}
	})
}

func TestDisableRule(t *testing.T) {
	reg := testutil.TestRegistry(t)
	svc := NewRuleService(reg, config.BooksConfig{})

	rule, err := svc.DisableRule("rule-003")
	testutil.AssertNoError(t, err)
	if rule.Enabled {
		t.Error("expected rule to be disabled")
	}

	matches, err := svc.TestRule(models.MatchFieldCounterpartyName, "PROXIMUS NV", models.AccountTypeStandard)
	testutil.AssertNoError(t, err)
	if len(matches) != 0 {
		t.Errorf("disabled rule still matches: %+v", matches)
	}
	if len(svc.ListRules()) != len(testutil.TestRules()) {
		t.Error("disabled rule must stay listed")
	}

	_, err = svc.DisableRule("rule-999")
	testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
}

func TestTestRule(t *testing.T) {
	svc := NewRuleService(testutil.TestRegistry(t), config.BooksConfig{})

	t.Run("counterparty", func(t *testing.T) {
		matches, err := svc.TestRule("", "RIZIV-INAMI", models.AccountTypeStandard)
		testutil.AssertNoError(t, err)
		if len(matches) != 1 || matches[0].Rule.ID != "rule-002" || !matches[0].Selected {
			t.Errorf("unexpected matches %+v", matches)
		}
	})

	t.Run("description rules only apply to partnership accounts", func(t *testing.T) {
		matches, err := svc.TestRule(models.MatchFieldDescription, "Winstverdeling 2025", models.AccountTypeMaatschap)
		testutil.AssertNoError(t, err)
		if len(matches) != 1 || !matches[0].Selected {
			t.Errorf("expected selected description rule, got %+v", matches)
		}

		matches, err = svc.TestRule(models.MatchFieldDescription, "Winstverdeling 2025", models.AccountTypeStandard)
		testutil.AssertNoError(t, err)
		if len(matches) != 1 || matches[0].Selected {
			t.Errorf("expected description rule not to be selected, got %+v", matches)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := svc.TestRule("amount", "12", models.AccountTypeStandard)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boekhouding-2024.xlsx")
	f := excelize.NewFile()
	testutil.AssertNoError(t, f.SetSheetName("Sheet1", "Verrichtingen"))
	rows := [][]any{
		{"Datum", "Naam tegenpartij", "Bedrag", "Categorie"},
		{"02/01/2024", "PROXIMUS", -45.99, "Telefonie"},
		{"02/02/2024", "PROXIMUS", -45.99, "Telefonie"},
		{"03/01/2024", "Le Pain Quotidien", -18.40, "Restaurant"},
		{"03/02/2024", "Le Pain Quotidien", -21.10, "Restaurant"},
	}
	for i, row := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		testutil.AssertNoError(t, f.SetSheetRow("Verrichtingen", addr, &row))
	}
	testutil.AssertNoError(t, f.SaveAs(path))
	f.Close()

	t.Run("dry run", func(t *testing.T) {
		reg := testutil.TestRegistry(t)
		svc := NewRuleService(reg, config.BooksConfig{})

		res, err := svc.Bootstrap([]string{path}, BootstrapOptions{DryRun: true})
		testutil.AssertNoError(t, err)
		if len(res.Rules) != 2 || res.Added != 0 {
			t.Errorf("unexpected result %+v", res)
		}
		if len(reg.CurrentRules()) != len(testutil.TestRules()) {
			t.Error("dry run must not add rules")
		}
	})

	t.Run("adds uncovered patterns", func(t *testing.T) {
		reg := testutil.TestRegistry(t)
		svc := NewRuleService(reg, config.BooksConfig{})

		res, err := svc.Bootstrap([]string{path}, BootstrapOptions{})
		testutil.AssertNoError(t, err)
		if res.Added != 1 || res.Skipped != 1 {
			t.Fatalf("expected 1 added and 1 skipped, got %d/%d", res.Added, res.Skipped)
		}
		added, ok := reg.Rule("rule-005")
		if !ok || added.Pattern != "Le Pain Quotidien" || added.TargetCategory != "restaurant" ||
			added.Source != models.RuleSourceExtracted {
			t.Errorf("unexpected added rule %+v", added)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		svc := NewRuleService(testutil.TestRegistry(t), config.BooksConfig{})
		_, err := svc.Bootstrap([]string{filepath.Join(t.TempDir(), "missing.xlsx")}, BootstrapOptions{})
		testutil.AssertAppError(t, err, "IMPORT_FAILED")
	})
}
