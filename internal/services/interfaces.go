package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"boekhouden/internal/categorizer"
	"boekhouden/internal/importer"
	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
	"boekhouden/internal/reconcile"
	"boekhouden/internal/report"
)

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Year          *int
	Category      *string
	Uncategorized bool
	Private       bool
	Search        string
	FromDate      *time.Time
	ToDate        *time.Time
	// IncludeExcluded also lists Mastercard settlements and other excluded rows.
	IncludeExcluded bool
}

// TransactionServicer defines the contract for transaction queries and
// manual categorization.
type TransactionServicer interface {
	ListTransactions(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetTransaction(id string) (*models.Transaction, error)
	AssignCategory(id, category string, therapeutic *bool) (*models.Transaction, error)
	ClearCategory(id string) (*models.Transaction, error)
}

// CategorizationServicer runs the rule-based categorizer over stored
// transactions.
type CategorizationServicer interface {
	Categorize(ctx context.Context, year int, all, dryRun bool) (*categorizer.Result, error)
}

// MatchRun is the outcome of a reconciliation run.
type MatchRun struct {
	reconcile.Result
	// Pending is the number of candidate decisions stored for review.
	Pending int  `json:"pending"`
	DryRun  bool `json:"dry_run"`
}

// MatchServicer defines the contract for private-expense reconciliation.
type MatchServicer interface {
	Run(ctx context.Context, year int, dryRun bool) (*MatchRun, error)
	List(status *models.MatchStatus, page pagination.PageRequest) (*pagination.PageResponse[models.MatchDecision], error)
	Create(expenseID, reimbursementID, note string) (*models.MatchDecision, error)
	Accept(decisionID string) (*models.MatchDecision, error)
	Reject(decisionID, note string) (*models.MatchDecision, error)
	RejectPair(expenseID, reimbursementID, note string) (*models.MatchDecision, error)
}

// RuleMatch is one rule that matches a sample value. Selected marks the
// rule the categorizer would apply.
type RuleMatch struct {
	Rule     models.CategoryRule `json:"rule"`
	Selected bool                `json:"selected"`
}

// BootstrapOptions controls rule extraction from earlier workbooks.
type BootstrapOptions struct {
	MinOccurrences int
	// DryRun reports the extracted rules without saving them.
	DryRun bool
}

// BootstrapResult reports extracted rules and which of them were added.
type BootstrapResult struct {
	*importer.Extraction
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// RuleServicer defines the contract for rule maintenance.
type RuleServicer interface {
	ListRules() []models.CategoryRule
	AddRule(rule models.CategoryRule) (*models.CategoryRule, error)
	DisableRule(id string) (*models.CategoryRule, error)
	TestRule(field models.MatchField, value string, accountType models.AccountType) ([]RuleMatch, error)
	Bootstrap(paths []string, opts BootstrapOptions) (*BootstrapResult, error)
}

// CategoryServicer exposes the configured categories.
type CategoryServicer interface {
	ListCategories() []models.Category
	GetCategory(id string) (*models.Category, error)
}

// AssetInput holds the fields for a new asset.
type AssetInput struct {
	Name              string
	PurchaseDate      time.Time
	PurchaseAmount    decimal.Decimal
	DepreciationYears int
	Notes             string
}

// AssetView is an asset with its derived state for a reference year.
type AssetView struct {
	models.Asset
	Status             models.AssetStatus `json:"status"`
	AnnualDepreciation decimal.Decimal    `json:"annual_depreciation"`
	BookValue          decimal.Decimal    `json:"book_value"`
}

// AssetImportResult reports an Excel asset import.
type AssetImportResult struct {
	Imported []models.Asset `json:"imported"`
	Skipped  int            `json:"skipped"`
}

// AssetServicer defines the contract for the asset register.
type AssetServicer interface {
	AddAsset(input AssetInput) (*models.Asset, error)
	ListAssets(refYear int) ([]AssetView, error)
	GetAsset(id string) (*models.Asset, error)
	DisposeAsset(id string, date time.Time) (*models.Asset, error)
	ImportFromExcel(r io.Reader, sheet string, refYear int) (*AssetImportResult, error)
}

// ReportServicer builds and renders the yearly P&L.
type ReportServicer interface {
	Generate(ctx context.Context, year int) (*report.Report, error)
	WriteExcel(ctx context.Context, year int, w io.Writer) error
	WritePDF(ctx context.Context, year int, w io.Writer) error
}

// ImportOptions controls a statement import.
type ImportOptions struct {
	// FiscalYear keeps only rows booked in that year when non-zero.
	FiscalYear int
	// Force overwrites known transactions instead of skipping them.
	Force bool
	// DryRun parses and counts without storing anything.
	DryRun bool
}

// ImportServicer defines the contract for bank statement imports.
type ImportServicer interface {
	ImportCSV(ctx context.Context, filename string, r io.Reader, opts ImportOptions) (*models.ImportSession, error)
	ListSessions(page pagination.PageRequest) (*pagination.PageResponse[models.ImportSession], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actor, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
