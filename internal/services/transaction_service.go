package services

import (
	"strings"

	"gorm.io/gorm"

	"boekhouden/internal/config"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
)

// transactionService handles transaction queries and manual categorization.
type transactionService struct {
	db       *gorm.DB
	registry *config.Registry
	books    config.BooksConfig
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, registry *config.Registry, books config.BooksConfig) TransactionServicer {
	return &transactionService{db: db, registry: registry, books: withBookDefaults(books)}
}

// withBookDefaults fills in the well-known category ids.
func withBookDefaults(b config.BooksConfig) config.BooksConfig {
	if b.RevenueCategory == "" {
		b.RevenueCategory = models.CategoryRevenue
	}
	if b.PrivateCategory == "" {
		b.PrivateCategory = models.CategoryPrivateExpense
	}
	return b
}

// ListTransactions retrieves a paginated, filtered list of transactions,
// oldest first.
func (s *transactionService) ListTransactions(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{})
	base = s.applyFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("booking_date ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *transactionService) applyFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.Year != nil {
		q = q.Where("fiscal_year = ?", *f.Year)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.Uncategorized {
		q = q.Where("(category IS NULL OR category = '')")
	}
	if f.Private {
		q = q.Where("category = ?", s.books.PrivateCategory)
	}
	if f.FromDate != nil {
		q = q.Where("booking_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("booking_date <= ?", *f.ToDate)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("(LOWER(counterparty_name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(communication) LIKE ?)", like, like, like)
	}
	if !f.IncludeExcluded {
		q = q.Where("is_excluded = ?", false)
	}
	return q
}

// GetTransaction retrieves a transaction by id.
func (s *transactionService) GetTransaction(id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, notFound(err, apperrors.ErrTransactionNotFound)
	}
	return &tx, nil
}

// AssignCategory sets a category by hand. The assignment is a manual
// override: the categorizer leaves it alone unless run with --all, and the
// rule id is cleared. Only revenue may be marked therapeutic, and a
// matched transaction cannot leave the private-expense category.
func (s *transactionService) AssignCategory(id, category string, therapeutic *bool) (*models.Transaction, error) {
	if _, ok := s.registry.Category(category); !ok {
		return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "unknown category: "+category)
	}

	isTherapeutic := therapeutic != nil && *therapeutic
	if isTherapeutic && category != s.books.RevenueCategory {
		return nil, apperrors.ErrTherapeuticCategory
	}

	tx, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if tx.IsExcluded {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction is excluded: "+models.Deref(tx.ExclusionReason))
	}
	if category != s.books.PrivateCategory {
		if err := ensureUnmatched(s.db, tx.ID); err != nil {
			return nil, err
		}
	}

	// Keep an existing therapeutic flag on revenue when none was given.
	if therapeutic == nil && category == s.books.RevenueCategory {
		isTherapeutic = tx.IsTherapeutic && tx.HasCategory(category)
	}

	tx.Category = &category
	tx.MatchedRuleID = nil
	tx.IsManualOverride = true
	tx.IsTherapeutic = isTherapeutic

	if err := s.save(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// ClearCategory removes any category so the next categorizer run picks the
// transaction up again. Matched transactions keep their category.
func (s *transactionService) ClearCategory(id string) (*models.Transaction, error) {
	tx, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if err := ensureUnmatched(s.db, tx.ID); err != nil {
		return nil, err
	}

	tx.Category = nil
	tx.MatchedRuleID = nil
	tx.IsManualOverride = false
	tx.IsTherapeutic = false

	if err := s.save(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *transactionService) save(tx *models.Transaction) error {
	err := s.db.Model(tx).Select("category", "matched_rule_id", "is_manual_override", "is_therapeutic", "updated_at").
		Updates(tx).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
