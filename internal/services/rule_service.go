package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"boekhouden/internal/categorizer"
	"boekhouden/internal/config"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/importer"
	"boekhouden/internal/logger"
	"boekhouden/internal/models"
	"boekhouden/internal/rules"
)

var ruleIDPattern = regexp.MustCompile(`^rule-(\d+)$`)

// ruleService maintains the rules in rules.yaml.
type ruleService struct {
	registry *config.Registry
	books    config.BooksConfig
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(registry *config.Registry, books config.BooksConfig) RuleServicer {
	return &ruleService{registry: registry, books: withBookDefaults(books)}
}

// ListRules returns every rule, enabled or not, in file order.
func (s *ruleService) ListRules() []models.CategoryRule {
	return s.registry.CurrentRules()
}

// AddRule validates rule against the categories and the other rules, then
// saves it. An empty id gets the next free "rule-NNN"; missing pattern type
// and match field default to contains on the counterparty name.
func (s *ruleService) AddRule(rule models.CategoryRule) (*models.CategoryRule, error) {
	if rule.Pattern == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pattern is required")
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
	if rule.Priority == 0 {
		rule.Priority = 100
	}
	rule.Enabled = true

	err := s.registry.UpdateRules(func(current []models.CategoryRule) ([]models.CategoryRule, error) {
		if rule.ID == "" {
			rule.ID = nextRuleID(current)
		}
		for _, r := range current {
			if r.ID == rule.ID {
				return nil, apperrors.WithMessage(apperrors.ErrDuplicateRule, "rule already exists: "+rule.ID)
			}
		}
		next := append(current, rule)
		if _, err := rules.NewRuleSet(next, s.registry.Categories, s.books.RevenueCategory); err != nil {
			return nil, configError(err)
		}
		return next, nil
	})
	if err != nil {
		return nil, ruleUpdateError(err)
	}

	logger.Get().Infow("rule added", "rule_id", rule.ID, "pattern", rule.Pattern, "category", rule.TargetCategory)
	return &rule, nil
}

// DisableRule switches a rule off. Disabled rules stay in the file.
func (s *ruleService) DisableRule(id string) (*models.CategoryRule, error) {
	var disabled models.CategoryRule
	err := s.registry.UpdateRules(func(current []models.CategoryRule) ([]models.CategoryRule, error) {
		for i := range current {
			if current[i].ID == id {
				current[i].Enabled = false
				disabled = current[i]
				return current, nil
			}
		}
		return nil, apperrors.ErrRuleNotFound
	})
	if err != nil {
		return nil, ruleUpdateError(err)
	}

	logger.Get().Infow("rule disabled", "rule_id", id)
	return &disabled, nil
}

// TestRule lists the enabled rules matching value in field, marking the
// one the categorizer would pick for an account of the given type.
func (s *ruleService) TestRule(field models.MatchField, value string, accountType models.AccountType) ([]RuleMatch, error) {
	if field == "" {
		field = models.MatchFieldCounterpartyName
	}
	if !field.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown match field: "+string(field))
	}

	rs, err := ruleSet(s.registry, s.books)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{}
	switch field {
	case models.MatchFieldCounterpartyName:
		tx.CounterpartyName = &value
	case models.MatchFieldCounterpartyIBAN:
		tx.CounterpartyIBAN = &value
	case models.MatchFieldDescription:
		tx.Description = &value
	}

	var accounts []models.Account
	if accountType == models.AccountTypeMaatschap {
		const sampleIBAN = "SAMPLE"
		tx.OwnAccount = models.Str(sampleIBAN)
		accounts = []models.Account{{IBAN: sampleIBAN, AccountType: models.AccountTypeMaatschap}}
	}
	selected := categorizer.New(rs, accounts).Match(tx)

	matches := []RuleMatch{}
	for _, r := range rs.Matching(tx) {
		matches = append(matches, RuleMatch{Rule: r.CategoryRule, Selected: selected != nil && selected.ID == r.ID})
	}
	return matches, nil
}

// Bootstrap extracts counterparty rules from earlier years' workbooks and
// appends those whose pattern is not covered by an existing rule.
func (s *ruleService) Bootstrap(paths []string, opts BootstrapOptions) (*BootstrapResult, error) {
	ex := importer.NewExtractor(s.registry.Categories)
	if opts.MinOccurrences > 0 {
		ex.MinOccurrences = opts.MinOccurrences
	}

	extraction, err := ex.ExtractFiles(paths)
	if err != nil {
		return nil, apperrors.WrapWithMessage(apperrors.ErrImportFailed, err.Error(), err)
	}

	result := &BootstrapResult{Extraction: extraction}
	if opts.DryRun {
		return result, nil
	}

	err = s.registry.UpdateRules(func(current []models.CategoryRule) ([]models.CategoryRule, error) {
		known := make(map[string]bool, len(current))
		for _, r := range current {
			if r.MatchField == models.MatchFieldCounterpartyName {
				known[r.Pattern] = true
			}
		}
		next := current
		for _, r := range extraction.Rules {
			if known[r.Pattern] {
				result.Skipped++
				continue
			}
			r.ID = nextRuleID(next)
			next = append(next, r)
			known[r.Pattern] = true
			result.Added++
		}
		if _, err := rules.NewRuleSet(next, s.registry.Categories, s.books.RevenueCategory); err != nil {
			return nil, configError(err)
		}
		return next, nil
	})
	if err != nil {
		return nil, ruleUpdateError(err)
	}

	logger.Get().Infow("rules bootstrapped",
		"files", len(paths),
		"extracted", len(extraction.Rules),
		"added", result.Added,
		"skipped", result.Skipped,
		"ambiguous", len(extraction.Ambiguous),
	)
	return result, nil
}

// nextRuleID returns "rule-NNN" one above the highest numbered rule.
func nextRuleID(current []models.CategoryRule) string {
	highest := 0
	for _, r := range current {
		m := ruleIDPattern.FindStringSubmatch(r.ID)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("rule-%03d", highest+1)
}

func ruleUpdateError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
