package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"boekhouden/internal/logger"
	"boekhouden/internal/models"
)

// Registry file names inside the config directory.
const (
	CategoriesFile = "categories.yaml"
	RulesFile      = "rules.yaml"
	AccountsFile   = "accounts.yaml"
)

// ErrInvalidConfig marks configuration that must be fixed before any
// transaction is processed.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError names the offending file entry.
type ValidationError struct {
	File   string
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q: %s", e.File, e.ID, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidConfig) succeed.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

// Registry holds the categories, rules and accounts loaded from YAML.
type Registry struct {
	Categories []models.Category
	Rules      []models.CategoryRule
	Accounts   []models.Account

	dir        string
	categories map[string]models.Category
	mu         sync.RWMutex
}

type categoryDoc struct {
	ID               string              `yaml:"id"`
	Name             string              `yaml:"name"`
	Type             models.CategoryType `yaml:"type"`
	TaxDeductible    *bool               `yaml:"tax_deductible"`
	DeductibilityPct *int                `yaml:"deductibility_pct"`
	Description      string              `yaml:"description"`
}

type categoriesFile struct {
	Categories []categoryDoc `yaml:"categories"`
}

type ruleDoc struct {
	ID             string             `yaml:"id"`
	Pattern        string             `yaml:"pattern"`
	PatternType    models.PatternType `yaml:"pattern_type,omitempty"`
	MatchField     models.MatchField  `yaml:"match_field,omitempty"`
	TargetCategory string             `yaml:"target_category"`
	Priority       int                `yaml:"priority"`
	IsTherapeutic  *bool              `yaml:"is_therapeutic,omitempty"`
	Enabled        *bool              `yaml:"enabled,omitempty"`
	Source         models.RuleSource  `yaml:"source,omitempty"`
	Notes          string             `yaml:"notes,omitempty"`
}

type rulesFile struct {
	Version string    `yaml:"version"`
	Rules   []ruleDoc `yaml:"rules"`
}

type accountsFile struct {
	Accounts []models.Account `yaml:"accounts"`
}

// LoadRegistry reads and validates the registry files in dir. A missing
// file yields an empty section; a malformed or invalid one is an error.
// Rules are validated against the categories by rules.NewRuleSet, not here.
func LoadRegistry(dir string) (*Registry, error) {
	r := &Registry{dir: dir}

	var cf categoriesFile
	if err := readYAML(filepath.Join(dir, CategoriesFile), &cf); err != nil {
		return nil, err
	}
	cats, err := toCategories(cf.Categories)
	if err != nil {
		return nil, err
	}
	r.setCategories(cats)

	var rf rulesFile
	if err := readYAML(filepath.Join(dir, RulesFile), &rf); err != nil {
		return nil, err
	}
	r.Rules = toRules(rf.Rules)

	var af accountsFile
	if err := readYAML(filepath.Join(dir, AccountsFile), &af); err != nil {
		return nil, err
	}
	if err := validateAccounts(af.Accounts); err != nil {
		return nil, err
	}
	r.Accounts = af.Accounts

	logger.Get().Infow("registry loaded",
		"dir", dir,
		"categories", len(r.Categories),
		"rules", len(r.Rules),
		"accounts", len(r.Accounts),
	)
	return r, nil
}

// NewRegistry builds an in-memory registry, e.g. for tests. It is not
// tied to a directory, so SaveRules fails.
func NewRegistry(categories []models.Category, rules []models.CategoryRule, accounts []models.Account) *Registry {
	r := &Registry{Rules: rules, Accounts: accounts}
	r.setCategories(categories)
	return r
}

func (r *Registry) setCategories(cats []models.Category) {
	r.Categories = cats
	r.categories = make(map[string]models.Category, len(cats))
	for _, c := range cats {
		r.categories[c.ID] = c
	}
}

// Dir is the directory the registry was loaded from.
func (r *Registry) Dir() string { return r.dir }

// Category looks up a category by id.
func (r *Registry) Category(id string) (models.Category, bool) {
	c, ok := r.categories[id]
	return c, ok
}

// CategoryMap returns the categories keyed by id.
func (r *Registry) CategoryMap() map[string]models.Category {
	out := make(map[string]models.Category, len(r.categories))
	for k, v := range r.categories {
		out[k] = v
	}
	return out
}

// SetDir ties the registry to dir so that SaveRules writes there.
func (r *Registry) SetDir(dir string) { r.dir = dir }

// CurrentRules returns a copy of the rules, safe to use while another
// goroutine updates them.
func (r *Registry) CurrentRules() []models.CategoryRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.CategoryRule, len(r.Rules))
	copy(out, r.Rules)
	return out
}

// UpdateRules replaces the rules with the result of fn and saves them. The
// rules are left untouched when fn or the save fails.
func (r *Registry) UpdateRules(fn func([]models.CategoryRule) ([]models.CategoryRule, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := make([]models.CategoryRule, len(r.Rules))
	copy(current, r.Rules)
	next, err := fn(current)
	if err != nil {
		return err
	}

	prev := r.Rules
	r.Rules = next
	if err := r.saveRules(); err != nil {
		r.Rules = prev
		return err
	}
	return nil
}

// Rule looks up a rule by id.
func (r *Registry) Rule(id string) (models.CategoryRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rule := range r.Rules {
		if rule.ID == id {
			return rule, true
		}
	}
	return models.CategoryRule{}, false
}

// AccountByIBAN finds an account by (normalized) IBAN.
func (r *Registry) AccountByIBAN(iban string) (models.Account, bool) {
	n := models.NormalizeIBAN(iban)
	for _, a := range r.Accounts {
		if a.NormalizedIBAN() == n {
			return a, true
		}
	}
	return models.Account{}, false
}

// SaveRules writes r.Rules back to rules.yaml, preserving their order.
func (r *Registry) SaveRules() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saveRules()
}

func (r *Registry) saveRules() error {
	if r.dir == "" {
		return errors.New("registry has no directory")
	}

	doc := rulesFile{Version: "1.0", Rules: make([]ruleDoc, 0, len(r.Rules))}
	for _, rule := range r.Rules {
		enabled := rule.Enabled
		doc.Rules = append(doc.Rules, ruleDoc{
			ID:             rule.ID,
			Pattern:        rule.Pattern,
			PatternType:    rule.PatternType,
			MatchField:     rule.MatchField,
			TargetCategory: rule.TargetCategory,
			Priority:       rule.Priority,
			IsTherapeutic:  rule.IsTherapeutic,
			Enabled:        &enabled,
			Source:         rule.Source,
			Notes:          rule.Notes,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}

	path := filepath.Join(r.dir, RulesFile)
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace rules: %w", err)
	}

	logger.Get().Infow("rules saved", "path", path, "rules", len(r.Rules))
	return nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Get().Warnw("config file not found", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}
	return nil
}

func toCategories(docs []categoryDoc) ([]models.Category, error) {
	seen := make(map[string]bool, len(docs))
	out := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		switch {
		case d.ID == "":
			return nil, &ValidationError{File: CategoriesFile, ID: d.Name, Reason: "missing id"}
		case seen[d.ID]:
			return nil, &ValidationError{File: CategoriesFile, ID: d.ID, Reason: "duplicate id"}
		case !d.Type.IsValid():
			return nil, &ValidationError{File: CategoriesFile, ID: d.ID, Reason: fmt.Sprintf("invalid type %q", d.Type)}
		}
		seen[d.ID] = true

		pct := 100
		if d.DeductibilityPct != nil {
			pct = *d.DeductibilityPct
		}
		if pct < 0 || pct > 100 {
			return nil, &ValidationError{File: CategoriesFile, ID: d.ID, Reason: fmt.Sprintf("deductibility_pct %d out of range 0-100", pct)}
		}

		deductible := d.Type == models.CategoryTypeExpense
		if d.TaxDeductible != nil {
			deductible = *d.TaxDeductible
		}

		name := d.Name
		if name == "" {
			name = d.ID
		}

		out = append(out, models.Category{
			ID:               d.ID,
			Name:             name,
			Type:             d.Type,
			TaxDeductible:    deductible,
			DeductibilityPct: pct,
			Description:      d.Description,
		})
	}
	return out, nil
}

func toRules(docs []ruleDoc) []models.CategoryRule {
	out := make([]models.CategoryRule, 0, len(docs))
	for _, d := range docs {
		rule := models.CategoryRule{
			ID:             d.ID,
			Pattern:        d.Pattern,
			PatternType:    d.PatternType,
			MatchField:     d.MatchField,
			TargetCategory: d.TargetCategory,
			Priority:       d.Priority,
			IsTherapeutic:  d.IsTherapeutic,
			Enabled:        d.Enabled == nil || *d.Enabled,
			Source:         d.Source,
			Notes:          d.Notes,
		}
		if rule.PatternType == "" {
			rule.PatternType = models.PatternTypeContains
		}
		if rule.MatchField == "" {
			rule.MatchField = models.MatchFieldCounterpartyName
		}
		if rule.Source == "" {
			rule.Source = models.RuleSourceManual
		}
		out = append(out, rule)
	}
	return out
}

func validateAccounts(accounts []models.Account) error {
	ids := make(map[string]bool, len(accounts))
	ibans := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		switch {
		case a.ID == "":
			return &ValidationError{File: AccountsFile, ID: a.Name, Reason: "missing id"}
		case ids[a.ID]:
			return &ValidationError{File: AccountsFile, ID: a.ID, Reason: "duplicate id"}
		case a.NormalizedIBAN() == "":
			return &ValidationError{File: AccountsFile, ID: a.ID, Reason: "missing iban"}
		case ibans[a.NormalizedIBAN()]:
			return &ValidationError{File: AccountsFile, ID: a.ID, Reason: "iban used by another account"}
		}
		switch a.AccountType {
		case models.AccountTypeStandard:
		case models.AccountTypeMaatschap:
			if len(a.Partners) < models.MinPartners {
				return &ValidationError{File: AccountsFile, ID: a.ID,
					Reason: fmt.Sprintf("maatschap account needs at least %d partners", models.MinPartners)}
			}
			for _, p := range a.Partners {
				if p.Name == "" || p.IBAN == "" {
					return &ValidationError{File: AccountsFile, ID: a.ID, Reason: "partner needs a name and an iban"}
				}
			}
		default:
			return &ValidationError{File: AccountsFile, ID: a.ID, Reason: fmt.Sprintf("invalid account_type %q", a.AccountType)}
		}
		ids[a.ID] = true
		ibans[a.NormalizedIBAN()] = true
	}
	return nil
}
