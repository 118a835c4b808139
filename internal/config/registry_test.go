package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"boekhouden/internal/models"
)

const testCategories = `categories:
  - id: omzet
    name: Omzet
    type: income
  - id: telefonie
    name: Telefonie & Internet
    type: expense
  - id: restaurant
    name: Restaurant
    type: expense
    deductibility_pct: 69
  - id: prive-opname
    name: Privé-opname
    type: excluded
`

const testRules = `version: "1.0"
rules:
  - id: rule-001
    pattern: PROXIMUS
    target_category: telefonie
    priority: 10
  - id: rule-002
    pattern: "^RIZIV"
    pattern_type: regex
    match_field: counterparty_name
    target_category: omzet
    priority: 5
    is_therapeutic: true
    source: extracted
  - id: rule-003
    pattern: lunch
    match_field: description
    target_category: restaurant
    priority: 20
    enabled: false
`

const testAccounts = `accounts:
  - id: eigen
    name: Eigen zichtrekening
    iban: BE05 0636 4778 9475
    account_type: standard
  - id: maatschap
    name: Maatschap
    iban: BE68 0689 0123 4567
    account_type: maatschap
    partners:
      - name: Goedele
        iban: BE11 1111 1111 1111
      - name: Sofie
        iban: BE22 2222 2222 2222
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func writeRegistry(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, CategoriesFile, testCategories)
	writeFile(t, dir, RulesFile, testRules)
	writeFile(t, dir, AccountsFile, testAccounts)
	return dir
}

func TestLoadRegistry(t *testing.T) {
	t.Run("loads all files with defaults", func(t *testing.T) {
		reg, err := LoadRegistry(writeRegistry(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reg.Categories) != 4 || len(reg.Rules) != 3 || len(reg.Accounts) != 2 {
			t.Fatalf("unexpected sizes: %d categories, %d rules, %d accounts",
				len(reg.Categories), len(reg.Rules), len(reg.Accounts))
		}

		omzet, ok := reg.Category("omzet")
		if !ok || omzet.DeductibilityPct != 100 || omzet.TaxDeductible {
			t.Errorf("unexpected omzet category: %+v", omzet)
		}
		restaurant, _ := reg.Category("restaurant")
		if restaurant.DeductibilityPct != 69 || !restaurant.TaxDeductible {
			t.Errorf("unexpected restaurant category: %+v", restaurant)
		}

		r1 := reg.Rules[0]
		if r1.PatternType != models.PatternTypeContains || r1.MatchField != models.MatchFieldCounterpartyName ||
			!r1.Enabled || r1.Source != models.RuleSourceManual {
			t.Errorf("expected rule defaults to be applied, got %+v", r1)
		}
		if reg.Rules[1].IsTherapeutic == nil || !*reg.Rules[1].IsTherapeutic {
			t.Error("expected rule-002 to be therapeutic")
		}
		if reg.Rules[2].Enabled {
			t.Error("expected rule-003 to be disabled")
		}
	})

	t.Run("missing files yield an empty registry", func(t *testing.T) {
		reg, err := LoadRegistry(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reg.Categories)+len(reg.Rules)+len(reg.Accounts) != 0 {
			t.Errorf("expected empty registry, got %+v", reg)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := writeRegistry(t)
		writeFile(t, dir, RulesFile, "rules: [\n")
		if _, err := LoadRegistry(dir); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("invalid category type", func(t *testing.T) {
		dir := writeRegistry(t)
		writeFile(t, dir, CategoriesFile, "categories:\n  - id: x\n    type: other\n")
		_, err := LoadRegistry(dir)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.ID != "x" {
			t.Fatalf("expected ValidationError for x, got %v", err)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Error("expected ValidationError to wrap ErrInvalidConfig")
		}
	})

	t.Run("deductibility out of range", func(t *testing.T) {
		dir := writeRegistry(t)
		writeFile(t, dir, CategoriesFile, "categories:\n  - id: x\n    type: expense\n    deductibility_pct: 120\n")
		if _, err := LoadRegistry(dir); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("maatschap needs two partners", func(t *testing.T) {
		dir := writeRegistry(t)
		writeFile(t, dir, AccountsFile, `accounts:
  - id: m
    iban: BE68
    account_type: maatschap
    partners:
      - name: Goedele
        iban: BE11
`)
		_, err := LoadRegistry(dir)
		if err == nil || !strings.Contains(err.Error(), "at least 2 partners") {
			t.Errorf("expected partner count error, got %v", err)
		}
	})

	t.Run("unknown account type", func(t *testing.T) {
		dir := writeRegistry(t)
		writeFile(t, dir, AccountsFile, "accounts:\n  - id: a\n    iban: BE01\n    account_type: savings\n")
		if _, err := LoadRegistry(dir); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestRegistryLookups(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acc, ok := reg.AccountByIBAN("be68068901234567")
	if !ok || !acc.IsMaatschap() {
		t.Errorf("expected maatschap account by normalized iban, got %+v", acc)
	}
	if _, ok := reg.AccountByIBAN("BE00"); ok {
		t.Error("expected unknown iban not to be found")
	}
	if _, ok := reg.Rule("rule-002"); !ok {
		t.Error("expected rule-002 to be found")
	}
	if len(reg.CategoryMap()) != 4 {
		t.Error("expected category map with 4 entries")
	}
}

func TestSaveRules(t *testing.T) {
	dir := writeRegistry(t)
	reg, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg.Rules = append(reg.Rules, models.CategoryRule{
		ID: "rule-004", Pattern: "Colruyt", PatternType: models.PatternTypeContains,
		MatchField: models.MatchFieldCounterpartyName, TargetCategory: "restaurant",
		Priority: 30, Enabled: true, Source: models.RuleSourceManual,
	})
	if err := reg.SaveRules(); err != nil {
		t.Fatalf("failed to save rules: %v", err)
	}

	reloaded, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if len(reloaded.Rules) != 4 || reloaded.Rules[3].ID != "rule-004" {
		t.Fatalf("expected appended rule to survive a reload, got %+v", reloaded.Rules)
	}
	if reloaded.Rules[2].Enabled {
		t.Error("expected disabled rule to stay disabled")
	}

	data, _ := os.ReadFile(filepath.Join(dir, RulesFile))
	if !strings.HasPrefix(string(data), `version: "1.0"`) {
		t.Errorf("expected version header, got %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	if err := NewRegistry(nil, nil, nil).SaveRules(); err == nil {
		t.Error("expected in-memory registry to refuse saving")
	}
}

func TestLoadDir(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadDir(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DB.Driver != "sqlite" || cfg.Books.RevenueCategory != models.CategoryRevenue {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if cfg.Matching.Threshold != 50 || cfg.Matching.Weights.KeywordBonus != 50 || cfg.Matching.Weights.ProximityDays != 90 {
			t.Errorf("unexpected matching defaults: %+v", cfg.Matching)
		}
		if cfg.DB.MigrateURL() != "sqlite3://"+cfg.DB.Path {
			t.Errorf("unexpected migrate url %q", cfg.DB.MigrateURL())
		}
	})

	t.Run("settings file and environment", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "settings.yaml", `company:
  name: Vroedvrouw Goedele
  fiscal_year: 2025
matching:
  threshold: 60
  vendor_bonus: 25
`)
		t.Setenv("BOEKHOUDEN_DB_PATH", "/tmp/test.db")

		cfg, err := LoadDir(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Company.Name != "Vroedvrouw Goedele" || cfg.Company.FiscalYear != 2025 {
			t.Errorf("unexpected company: %+v", cfg.Company)
		}
		if cfg.Matching.Threshold != 60 || cfg.Matching.Weights.VendorBonus != 25 || cfg.Matching.Weights.KeywordBonus != 50 {
			t.Errorf("unexpected matching: %+v", cfg.Matching)
		}
		if cfg.DB.Path != "/tmp/test.db" {
			t.Errorf("expected env override of db path, got %q", cfg.DB.Path)
		}
		if cfg.ConfigDir != dir {
			t.Errorf("expected config dir %q, got %q", dir, cfg.ConfigDir)
		}
	})

	t.Run("unsupported driver", func(t *testing.T) {
		t.Setenv("BOEKHOUDEN_DB_DRIVER", "mysql")
		if _, err := LoadDir(t.TempDir()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
