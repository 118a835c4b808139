package services

import (
	"context"
	"io"

	"gorm.io/gorm"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/importer"
	"boekhouden/internal/logger"
	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
)

// bankFields are overwritten by a forced re-import. Categorization columns
// are left alone.
var bankFields = []string{
	"source_file", "source_type", "statement_number", "transaction_number",
	"booking_date", "value_date", "amount", "currency", "fiscal_year",
	"counterparty_name", "counterparty_iban", "counterparty_street", "counterparty_postal_city",
	"counterparty_bic", "counterparty_country", "own_account", "description", "communication",
	"is_excluded", "exclusion_reason", "updated_at",
}

// importService stores bank statements.
type importService struct {
	db *gorm.DB
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB) ImportServicer {
	return &importService{db: db}
}

// ImportCSV reads a Belfius statement and stores its new transactions and
// the import session in one database transaction. Row errors end up in the
// session, not in the returned error. A dry run returns the session
// without touching the database.
func (s *importService) ImportCSV(ctx context.Context, filename string, r io.Reader, opts ImportOptions) (*models.ImportSession, error) {
	db := s.db.WithContext(ctx)

	var ids []string
	if err := db.Model(&models.Transaction{}).Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stored := make(map[string]bool, len(ids))
	existing := make(map[string]bool, len(ids))
	for _, id := range ids {
		stored[id] = true
		existing[id] = true
	}

	reader := &importer.BelfiusReader{ExistingIDs: existing, FiscalYear: opts.FiscalYear, Force: opts.Force}
	txs, session := reader.Read(r, filename)
	if opts.DryRun {
		return &session, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range txs {
			t := &txs[i]
			if stored[t.ID] {
				if err := tx.Model(t).Select(bankFields).Updates(t).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Create(t).Error; err != nil {
				return err
			}
			stored[t.ID] = true
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		logger.Get().Errorw("failed to store import", "file", filename, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &session, nil
}

// ListSessions returns earlier imports, newest first.
func (s *importService) ListSessions(page pagination.PageRequest) (*pagination.PageResponse[models.ImportSession], error) {
	page.Defaults()

	base := s.db.Model(&models.ImportSession{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var sessions []models.ImportSession
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(sessions, page.Page, page.PageSize, totalItems)
	return &result, nil
}
