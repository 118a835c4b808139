package services

import (
	"context"

	"gorm.io/gorm"

	"boekhouden/internal/categorizer"
	"boekhouden/internal/config"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/logger"
	"boekhouden/internal/models"
	"boekhouden/internal/rules"
)

// categorizationService runs the categorizer over stored transactions.
type categorizationService struct {
	db       *gorm.DB
	registry *config.Registry
	books    config.BooksConfig
}

// NewCategorizationService creates a new CategorizationServicer.
func NewCategorizationService(db *gorm.DB, registry *config.Registry, books config.BooksConfig) CategorizationServicer {
	return &categorizationService{db: db, registry: registry, books: withBookDefaults(books)}
}

// ruleSet compiles the current rules. Invalid rules abort before any
// transaction is read.
func ruleSet(registry *config.Registry, books config.BooksConfig) (*rules.RuleSet, error) {
	rs, err := rules.NewRuleSet(registry.CurrentRules(), registry.Categories, books.RevenueCategory)
	if err != nil {
		return nil, configError(err)
	}
	return rs, nil
}

// Categorize categorizes the transactions of year (all years when zero).
// Changed rows are written in one database transaction unless dryRun is set.
func (s *categorizationService) Categorize(ctx context.Context, year int, all, dryRun bool) (*categorizer.Result, error) {
	rs, err := ruleSet(s.registry, s.books)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Order("booking_date ASC, id ASC")
	if year != 0 {
		q = q.Where("fiscal_year = ?", year)
	}
	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	opts := categorizer.Options{All: all}
	if all {
		locked, err := activelyMatched(s.db.WithContext(ctx))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		opts.Locked = locked
	}

	res := categorizer.New(rs, s.registry.Accounts).Categorize(txs, opts)

	log := logger.Get()
	log.Infow("categorization finished",
		"year", year,
		"all", all,
		"dry_run", dryRun,
		"rules", rs.Len(),
		"categorized", res.Categorized,
		"uncategorized", res.Uncategorized,
		"skipped", res.Skipped,
		"changes", len(res.Changes),
	)

	if dryRun || len(res.Changes) == 0 {
		return &res, nil
	}

	changed := make(map[string]bool, len(res.Changes))
	for _, c := range res.Changes {
		changed[c.TransactionID] = true
	}

	err = s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		for i := range res.Transactions {
			tx := &res.Transactions[i]
			if !changed[tx.ID] {
				continue
			}
			if err := db.Model(tx).
				Select("category", "matched_rule_id", "is_manual_override", "is_therapeutic", "updated_at").
				Updates(tx).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Errorw("failed to store categorization", "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &res, nil
}
