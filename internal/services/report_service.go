package services

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"

	"boekhouden/internal/config"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
	"boekhouden/internal/report"
)

// reportService builds the P&L from stored data.
type reportService struct {
	db       *gorm.DB
	registry *config.Registry
	books    config.BooksConfig
	company  config.CompanyConfig
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, registry *config.Registry, books config.BooksConfig, company config.CompanyConfig) ReportServicer {
	return &reportService{db: db, registry: registry, books: withBookDefaults(books), company: company}
}

// load returns the report and the transactions it was built from.
func (s *reportService) load(ctx context.Context, year int) (*report.Report, []models.Transaction, error) {
	db := s.db.WithContext(ctx)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var txs []models.Transaction
	if err := db.Where("booking_date >= ? AND booking_date < ?", start, end).
		Order("booking_date ASC, id ASC").
		Find(&txs).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets []models.Asset
	if err := db.Find(&assets).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var decisions []models.MatchDecision
	if err := db.Where("status IN ?", []models.MatchStatus{models.MatchStatusAuto, models.MatchStatusManual}).
		Find(&decisions).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	r := report.Build(report.Input{
		Year:            year,
		Transactions:    txs,
		Assets:          assets,
		Categories:      s.registry.Categories,
		Decisions:       decisions,
		RevenueCategory: s.books.RevenueCategory,
		PrivateCategory: s.books.PrivateCategory,
	})
	return r, txs, nil
}

// Generate builds the P&L of year.
func (s *reportService) Generate(ctx context.Context, year int) (*report.Report, error) {
	r, _, err := s.load(ctx, year)
	return r, err
}

// WriteExcel writes the P&L workbook of year to w.
func (s *reportService) WriteExcel(ctx context.Context, year int, w io.Writer) error {
	r, txs, err := s.load(ctx, year)
	if err != nil {
		return err
	}
	if err := report.WriteExcel(w, r, txs); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// WritePDF writes the P&L report of year to w.
func (s *reportService) WritePDF(ctx context.Context, year int, w io.Writer) error {
	r, _, err := s.load(ctx, year)
	if err != nil {
		return err
	}
	if err := report.WritePDF(w, r, report.PDFOptions{Company: s.company.Name}); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
