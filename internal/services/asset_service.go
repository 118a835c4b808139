package services

import (
	"errors"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"boekhouden/internal/depreciation"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/importer"
	"boekhouden/internal/logger"
	"boekhouden/internal/models"
	"boekhouden/internal/uuid"
)

// assetService maintains the depreciation register.
type assetService struct {
	db *gorm.DB
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(db *gorm.DB) AssetServicer {
	return &assetService{db: db}
}

func validateAsset(a *models.Asset) error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return apperrors.WithMessage(apperrors.ErrInvalidAsset, "name is required")
	case !a.PurchaseAmount.IsPositive():
		return apperrors.WithMessage(apperrors.ErrInvalidAsset, "purchase amount must be positive")
	case a.DepreciationYears < models.MinDepreciationYears || a.DepreciationYears > models.MaxDepreciationYears:
		return apperrors.WithMessage(apperrors.ErrInvalidAsset, "depreciation years must be between 1 and 10")
	case a.PurchaseDate.IsZero():
		return apperrors.WithMessage(apperrors.ErrInvalidAsset, "purchase date is required")
	case a.DisposalDate != nil && a.DisposalDate.Before(a.PurchaseDate):
		return apperrors.WithMessage(apperrors.ErrInvalidAsset, "disposal date is before the purchase date")
	}
	return nil
}

// AddAsset registers a manually entered asset.
func (s *assetService) AddAsset(input AssetInput) (*models.Asset, error) {
	asset := &models.Asset{
		ID:                uuid.Short("asset"),
		Name:              strings.TrimSpace(input.Name),
		PurchaseDate:      input.PurchaseDate,
		PurchaseAmount:    input.PurchaseAmount.Round(2),
		DepreciationYears: input.DepreciationYears,
		Notes:             input.Notes,
		Source:            models.AssetSourceManual,
	}
	if err := validateAsset(asset); err != nil {
		return nil, err
	}

	dup, err := s.isDuplicate(s.db, asset)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, apperrors.ErrDuplicateAsset
	}

	if err := s.db.Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return asset, nil
}

// isDuplicate matches on name, purchase date and amount.
func (s *assetService) isDuplicate(db *gorm.DB, a *models.Asset) (bool, error) {
	var count int64
	err := db.Model(&models.Asset{}).
		Where("name = ? AND purchase_date = ? AND purchase_amount = ?", a.Name, a.PurchaseDate, a.PurchaseAmount).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// ListAssets returns every asset with its state at the end of refYear.
func (s *assetService) ListAssets(refYear int) ([]AssetView, error) {
	var assets []models.Asset
	if err := s.db.Order("purchase_date ASC, name ASC").Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ref := time.Date(refYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	views := make([]AssetView, 0, len(assets))
	for _, a := range assets {
		views = append(views, AssetView{
			Asset:              a,
			Status:             depreciation.Status(a, ref),
			AnnualDepreciation: a.AnnualDepreciation().Round(2),
			BookValue:          depreciation.BookValue(a, refYear).Round(2),
		})
	}
	return views, nil
}

// GetAsset retrieves an asset by id.
func (s *assetService) GetAsset(id string) (*models.Asset, error) {
	var a models.Asset
	if err := s.db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err, apperrors.ErrAssetNotFound)
	}
	return &a, nil
}

// DisposeAsset records the sale or scrapping of an asset. The disposal
// year is still depreciated.
func (s *assetService) DisposeAsset(id string, date time.Time) (*models.Asset, error) {
	a, err := s.GetAsset(id)
	if err != nil {
		return nil, err
	}
	if a.DisposalDate != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAsset, "asset is already disposed")
	}

	a.DisposalDate = &date
	if err := validateAsset(a); err != nil {
		return nil, err
	}
	if err := s.db.Model(a).Select("disposal_date", "updated_at").Updates(a).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return a, nil
}

// ImportFromExcel reads the result sheet of a bookkeeping workbook and
// registers its depreciation rows. Rows matching an existing asset are
// skipped, so importing the same workbook twice is harmless.
func (s *assetService) ImportFromExcel(r io.Reader, sheet string, refYear int) (*AssetImportResult, error) {
	reader := &importer.AssetReader{Sheet: sheet, RefYear: refYear}
	assets, err := reader.Read(r)
	if err != nil {
		if errors.Is(err, importer.ErrNoAssets) {
			return &AssetImportResult{Imported: []models.Asset{}}, nil
		}
		return nil, apperrors.WrapWithMessage(apperrors.ErrImportFailed, err.Error(), err)
	}

	result := &AssetImportResult{Imported: []models.Asset{}}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range assets {
			a := assets[i]
			a.ID = uuid.Short("asset")
			a.PurchaseAmount = a.PurchaseAmount.Round(2)
			if err := validateAsset(&a); err != nil {
				logger.Get().Warnw("skipping invalid asset", "name", a.Name, "error", err)
				result.Skipped++
				continue
			}
			dup, err := s.isDuplicate(tx, &a)
			if err != nil {
				return err
			}
			if dup {
				result.Skipped++
				continue
			}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
			result.Imported = append(result.Imported, a)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("assets imported", "imported", len(result.Imported), "skipped", result.Skipped)
	return result, nil
}
