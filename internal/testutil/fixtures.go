package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"boekhouden/internal/config"
	"boekhouden/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Well-known IBANs used by TestRegistry.
const (
	BusinessIBAN    = "BE05063647789475"
	PartnershipIBAN = "BE68068901234567"
)

// TestCategories returns a small category set covering every category type.
func TestCategories() []models.Category {
	return []models.Category{
		{ID: models.CategoryRevenue, Name: "Omzet", Type: models.CategoryTypeIncome, DeductibilityPct: 100},
		{ID: "telefonie", Name: "Telefonie en internet", Type: models.CategoryTypeExpense, TaxDeductible: true, DeductibilityPct: 100},
		{ID: "restaurant", Name: "Restaurant", Type: models.CategoryTypeExpense, TaxDeductible: true, DeductibilityPct: 69},
		{ID: "bankkosten", Name: "Bankkosten", Type: models.CategoryTypeExpense, TaxDeductible: true, DeductibilityPct: 100},
		{ID: "winstverdeling", Name: "Winstverdeling", Type: models.CategoryTypeExcluded, DeductibilityPct: 100},
		{ID: models.CategoryPrivateExpense, Name: "Verkeerde rekening", Type: models.CategoryTypeExcluded, DeductibilityPct: 100},
		{ID: models.CategoryDepreciation, Name: "Afschrijvingen", Type: models.CategoryTypeExpense, TaxDeductible: true, DeductibilityPct: 100},
	}
}

// TestRules returns rules for TestCategories: a revenue rule, two expense
// rules and a description rule for partnership profit splits.
func TestRules() []models.CategoryRule {
	therapeutic := true
	return []models.CategoryRule{
		{ID: "rule-001", Pattern: "winstverdeling", PatternType: models.PatternTypeContains, MatchField: models.MatchFieldDescription, TargetCategory: "winstverdeling", Priority: 5, Enabled: true, Source: models.RuleSourceManual},
		{ID: "rule-002", Pattern: "RIZIV", PatternType: models.PatternTypeContains, MatchField: models.MatchFieldCounterpartyName, TargetCategory: models.CategoryRevenue, Priority: 10, IsTherapeutic: &therapeutic, Enabled: true, Source: models.RuleSourceManual},
		{ID: "rule-003", Pattern: "PROXIMUS", PatternType: models.PatternTypeContains, MatchField: models.MatchFieldCounterpartyName, TargetCategory: "telefonie", Priority: 20, Enabled: true, Source: models.RuleSourceExtracted},
		{ID: "rule-004", Pattern: "BELFIUS", PatternType: models.PatternTypePrefix, MatchField: models.MatchFieldCounterpartyName, TargetCategory: "bankkosten", Priority: 20, Enabled: true, Source: models.RuleSourceExtracted},
	}
}

// TestAccounts returns a standard business account and a partnership account.
func TestAccounts() []models.Account {
	return []models.Account{
		{ID: "zakelijk", Name: "Zakelijk", IBAN: BusinessIBAN, AccountType: models.AccountTypeStandard},
		{ID: "maatschap", Name: "Maatschap", IBAN: PartnershipIBAN, AccountType: models.AccountTypeMaatschap, Partners: []models.Partner{
			{Name: "Partner A", IBAN: "BE11000000001111"},
			{Name: "Partner B", IBAN: "BE22000000002222"},
		}},
	}
}

// TestRegistry builds an in-memory registry from the test categories,
// rules and accounts. It is tied to a temporary directory so rule edits
// can be saved.
func TestRegistry(t *testing.T) *config.Registry {
	t.Helper()
	reg := config.NewRegistry(TestCategories(), TestRules(), TestAccounts())
	reg.SetDir(t.TempDir())
	return reg
}

// TestDate returns midnight UTC of the given day.
func TestDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewTestTransaction builds an unsaved transaction booked on the business
// account. Amount is a decimal string such as "-12.50".
func NewTestTransaction(amount string, date time.Time) models.Transaction {
	n := nextID()
	return models.Transaction{
		ID:                fmt.Sprintf("%d-%05d", date.Year(), n),
		SourceFile:        fmt.Sprintf("%d.csv", date.Year()),
		SourceType:        models.SourceTypeBankCSV,
		StatementNumber:   models.Str(fmt.Sprintf("%d", date.Year())),
		TransactionNumber: models.Str(fmt.Sprintf("%05d", n)),
		BookingDate:       date,
		ValueDate:         date,
		Amount:            decimal.RequireFromString(amount),
		Currency:          "EUR",
		FiscalYear:        date.Year(),
		OwnAccount:        models.Str(BusinessIBAN),
		CounterpartyName:  models.Str(fmt.Sprintf("Counterparty %d", n)),
	}
}

// CreateTestTransaction stores a transaction with the given amount and
// category. An empty category leaves it uncategorized.
func CreateTestTransaction(t *testing.T, db *gorm.DB, amount string, date time.Time, category string) *models.Transaction {
	t.Helper()

	tx := NewTestTransaction(amount, date)
	tx.Category = models.Str(category)
	return SaveTestTransaction(t, db, tx)
}

// SaveTestTransaction stores a prepared transaction.
func SaveTestTransaction(t *testing.T, db *gorm.DB, tx models.Transaction) *models.Transaction {
	t.Helper()

	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return &tx
}

// CreateTestPrivateExpense stores a transaction in the private-expense
// category. Negative amounts are expenses, positive ones reimbursements.
func CreateTestPrivateExpense(t *testing.T, db *gorm.DB, amount string, date time.Time, counterparty, description string) *models.Transaction {
	t.Helper()

	tx := NewTestTransaction(amount, date)
	tx.Category = models.Str(models.CategoryPrivateExpense)
	tx.CounterpartyName = models.Str(counterparty)
	tx.Description = models.Str(description)
	return SaveTestTransaction(t, db, tx)
}

// CreateTestDecision stores a match decision.
func CreateTestDecision(t *testing.T, db *gorm.DB, expenseID, reimbursementID string, status models.MatchStatus) *models.MatchDecision {
	t.Helper()

	d := &models.MatchDecision{
		ExpenseID:       expenseID,
		ReimbursementID: reimbursementID,
		Status:          status,
		Score:           80,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("failed to create test decision: %v", err)
	}
	return d
}

// CreateTestAsset stores an asset bought on 1 March of purchaseYear.
func CreateTestAsset(t *testing.T, db *gorm.DB, amount string, purchaseYear, years int) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		ID:                fmt.Sprintf("asset-%08d", nextID()),
		Name:              fmt.Sprintf("Test Asset %d", nextID()),
		PurchaseDate:      TestDate(purchaseYear, time.March, 1),
		PurchaseAmount:    decimal.RequireFromString(amount),
		DepreciationYears: years,
		Source:            models.AssetSourceManual,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}
