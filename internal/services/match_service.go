package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"boekhouden/internal/config"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/logger"
	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
	"boekhouden/internal/reconcile"
)

// matchService persists reconciliation decisions for private expenses.
type matchService struct {
	db     *gorm.DB
	engine *reconcile.Engine
	books  config.BooksConfig
}

// NewMatchService creates a new MatchServicer. Zero weights and threshold
// fall back to the defaults.
func NewMatchService(db *gorm.DB, matching config.MatchingConfig, books config.BooksConfig) MatchServicer {
	books = withBookDefaults(books)

	weights := matching.Weights
	if weights == (reconcile.Weights{}) {
		weights = reconcile.DefaultWeights()
	}
	keywords := matching.Keywords
	if len(keywords) == 0 {
		keywords = reconcile.DefaultKeywords
	}
	threshold := matching.Threshold
	if threshold <= 0 {
		threshold = reconcile.DefaultThreshold
	}

	engine := reconcile.NewEngine(reconcile.NewScorer(weights, keywords), threshold, books.PrivateCategory)
	return &matchService{db: db, engine: engine, books: books}
}

// Run pairs unmatched private expenses of year (all years when zero).
// Unique pairs are stored as auto decisions; every candidate of an
// ambiguous expense is stored as pending, replacing the pending rows of
// the previous run.
func (s *matchService) Run(ctx context.Context, year int, dryRun bool) (*MatchRun, error) {
	db := s.db.WithContext(ctx)

	q := db.Where("category = ? AND is_excluded = ?", s.books.PrivateCategory, false)
	if year != 0 {
		q = q.Where("fiscal_year = ?", year)
	}
	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var decisions []models.MatchDecision
	if err := db.Where("status <> ?", models.MatchStatusPending).Find(&decisions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	res := s.engine.Run(txs, decisions)

	var pending []models.MatchDecision
	for _, amb := range res.Ambiguous {
		for _, c := range amb.Candidates {
			pending = append(pending, models.MatchDecision{
				ExpenseID:       amb.Expense.ID,
				ReimbursementID: c.Reimbursement.ID,
				Score:           c.Score,
				Status:          models.MatchStatusPending,
			})
		}
	}

	run := &MatchRun{Result: res, Pending: len(pending), DryRun: dryRun}
	logger.Get().Infow("reconciliation finished",
		"year", year,
		"dry_run", dryRun,
		"pool", len(txs),
		"accepted", len(res.Accepted),
		"ambiguous", len(res.Ambiguous),
		"unmatched_expenses", res.UnmatchedExpenses,
		"unmatched_reimbursements", res.UnmatchedReimbursements,
	)
	if dryRun {
		return run, nil
	}

	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if len(ids) > 0 {
			if err := tx.Where("status = ? AND expense_id IN ?", models.MatchStatusPending, ids).
				Delete(&models.MatchDecision{}).Error; err != nil {
				return err
			}
		}
		for i := range res.Accepted {
			if err := tx.Create(&res.Accepted[i]).Error; err != nil {
				return err
			}
		}
		for i := range pending {
			if err := tx.Create(&pending[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return run, nil
}

// List retrieves decisions, newest first, with both transactions loaded.
func (s *matchService) List(status *models.MatchStatus, page pagination.PageRequest) (*pagination.PageResponse[models.MatchDecision], error) {
	page.Defaults()

	base := s.db.Model(&models.MatchDecision{})
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var decisions []models.MatchDecision
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Expense").
		Preload("Reimbursement").
		Order("created_at DESC, id ASC").
		Find(&decisions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(decisions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Create links an expense and a reimbursement by hand. The score does not
// gate a manual pairing, and an earlier rejection of the same pair is
// overridden.
func (s *matchService) Create(expenseID, reimbursementID, note string) (*models.MatchDecision, error) {
	expense, reimbursement, err := s.loadPair(expenseID, reimbursementID)
	if err != nil {
		return nil, err
	}

	decisions, err := s.decisionsFor(s.db, expenseID, reimbursementID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.ValidatePair(expense, reimbursement, decisions, true); err != nil {
		return nil, matchError(err)
	}

	decision := &models.MatchDecision{
		ExpenseID:       expenseID,
		ReimbursementID: reimbursementID,
		Score:           s.engine.Scorer().Score(expense, reimbursement),
		Status:          models.MatchStatusManual,
		Note:            note,
	}
	for _, d := range decisions {
		if d.ExpenseID == expenseID && d.ReimbursementID == reimbursementID {
			decision.ID = d.ID
			decision.CreatedAt = d.CreatedAt
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := deletePendingFor(tx, expenseID, reimbursementID); err != nil {
			return err
		}
		if decision.ID != "" {
			return tx.Save(decision).Error
		}
		return tx.Create(decision).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return decision, nil
}

// Accept turns a pending decision into a manual one.
func (s *matchService) Accept(decisionID string) (*models.MatchDecision, error) {
	decision, err := s.getDecision(decisionID)
	if err != nil {
		return nil, err
	}

	switch decision.Status {
	case models.MatchStatusAuto, models.MatchStatusManual:
		return nil, apperrors.WithMessage(apperrors.ErrAlreadyMatched, "decision is already active")
	case models.MatchStatusRejected:
		return nil, apperrors.ErrPairRejected
	}

	expense, reimbursement, err := s.loadPair(decision.ExpenseID, decision.ReimbursementID)
	if err != nil {
		return nil, err
	}
	decisions, err := s.decisionsFor(s.db, decision.ExpenseID, decision.ReimbursementID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.ValidatePair(expense, reimbursement, decisions, false); err != nil {
		return nil, matchError(err)
	}

	decision.Status = models.MatchStatusManual
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ? AND id <> ? AND (expense_id IN ? OR reimbursement_id IN ?)",
			models.MatchStatusPending, decision.ID,
			[]string{decision.ExpenseID, decision.ReimbursementID},
			[]string{decision.ExpenseID, decision.ReimbursementID},
		).Delete(&models.MatchDecision{}).Error; err != nil {
			return err
		}
		return tx.Model(decision).Select("status", "updated_at").Updates(decision).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return decision, nil
}

// Reject marks a decision rejected. An active pair is freed and the pair
// is never proposed again.
func (s *matchService) Reject(decisionID, note string) (*models.MatchDecision, error) {
	decision, err := s.getDecision(decisionID)
	if err != nil {
		return nil, err
	}

	decision.Status = models.MatchStatusRejected
	if note != "" {
		decision.Note = note
	}
	if err := s.db.Model(decision).Select("status", "note", "updated_at").Updates(decision).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return decision, nil
}

// RejectPair rejects a pair whether or not a decision exists for it yet.
func (s *matchService) RejectPair(expenseID, reimbursementID, note string) (*models.MatchDecision, error) {
	if _, _, err := s.loadPair(expenseID, reimbursementID); err != nil {
		return nil, err
	}

	var existing models.MatchDecision
	err := s.db.Where("expense_id = ? AND reimbursement_id = ?", expenseID, reimbursementID).
		Order("created_at DESC").First(&existing).Error
	switch {
	case err == nil:
		return s.Reject(existing.ID, note)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	decision := &models.MatchDecision{
		ExpenseID:       expenseID,
		ReimbursementID: reimbursementID,
		Status:          models.MatchStatusRejected,
		Note:            note,
	}
	if err := s.db.Create(decision).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return decision, nil
}

func (s *matchService) getDecision(id string) (*models.MatchDecision, error) {
	var d models.MatchDecision
	if err := s.db.Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err, apperrors.ErrMatchNotFound)
	}
	return &d, nil
}

func (s *matchService) loadPair(expenseID, reimbursementID string) (*models.Transaction, *models.Transaction, error) {
	var expense, reimbursement models.Transaction
	if err := s.db.Where("id = ?", expenseID).First(&expense).Error; err != nil {
		return nil, nil, notFound(err, apperrors.ErrTransactionNotFound)
	}
	if err := s.db.Where("id = ?", reimbursementID).First(&reimbursement).Error; err != nil {
		return nil, nil, notFound(err, apperrors.ErrTransactionNotFound)
	}
	return &expense, &reimbursement, nil
}

// decisionsFor loads the non-pending decisions touching either transaction.
func (s *matchService) decisionsFor(db *gorm.DB, expenseID, reimbursementID string) ([]models.MatchDecision, error) {
	ids := []string{expenseID, reimbursementID}
	var decisions []models.MatchDecision
	if err := db.Where("status <> ? AND (expense_id IN ? OR reimbursement_id IN ?)", models.MatchStatusPending, ids, ids).
		Find(&decisions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return decisions, nil
}

func deletePendingFor(tx *gorm.DB, expenseID, reimbursementID string) error {
	ids := []string{expenseID, reimbursementID}
	return tx.Where("status = ? AND (expense_id IN ? OR reimbursement_id IN ?)", models.MatchStatusPending, ids, ids).
		Delete(&models.MatchDecision{}).Error
}

var activeStatuses = []models.MatchStatus{models.MatchStatusAuto, models.MatchStatusManual}

// activelyMatched returns the ids of both sides of every auto or manual
// decision.
func activelyMatched(db *gorm.DB) (map[string]bool, error) {
	var decisions []models.MatchDecision
	if err := db.Where("status IN ?", activeStatuses).Find(&decisions).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]bool, 2*len(decisions))
	for _, d := range decisions {
		ids[d.ExpenseID] = true
		ids[d.ReimbursementID] = true
	}
	return ids, nil
}

// ensureUnmatched refuses changes to a transaction held by an active match.
func ensureUnmatched(db *gorm.DB, txID string) error {
	var count int64
	if err := db.Model(&models.MatchDecision{}).
		Where("status IN ? AND (expense_id = ? OR reimbursement_id = ?)", activeStatuses, txID, txID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrAlreadyMatched,
			"transaction "+txID+" is part of an active match; reject the match first")
	}
	return nil
}
