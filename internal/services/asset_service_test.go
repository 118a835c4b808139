package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"boekhouden/internal/models"
	"boekhouden/internal/testutil"
)

func TestAddAsset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAssetService(db)

	input := AssetInput{
		Name:              "Behandeltafel",
		PurchaseDate:      testutil.TestDate(2025, time.March, 12),
		PurchaseAmount:    decimal.RequireFromString("2400.004"),
		DepreciationYears: 5,
	}
	asset, err := svc.AddAsset(input)
	testutil.AssertNoError(t, err)
	if asset.ID == "" || asset.Source != models.AssetSourceManual {
		t.Errorf("unexpected asset %+v", asset)
	}
	if !asset.PurchaseAmount.Equal(decimal.RequireFromString("2400")) {
		t.Errorf("expected amount rounded to cents, got %s", asset.PurchaseAmount)
	}

	_, err = svc.AddAsset(input)
	testutil.AssertAppError(t, err, "DUPLICATE_ASSET")

	tests := []struct {
		name  string
		input AssetInput
	}{
		{"missing name", AssetInput{PurchaseDate: input.PurchaseDate, PurchaseAmount: decimal.NewFromInt(10), DepreciationYears: 3}},
		{"zero amount", AssetInput{Name: "Laptop", PurchaseDate: input.PurchaseDate, DepreciationYears: 3}},
		{"too many years", AssetInput{Name: "Laptop", PurchaseDate: input.PurchaseDate, PurchaseAmount: decimal.NewFromInt(10), DepreciationYears: 11}},
		{"no date", AssetInput{Name: "Laptop", PurchaseAmount: decimal.NewFromInt(10), DepreciationYears: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddAsset(tt.input)
			testutil.AssertAppError(t, err, "INVALID_ASSET")
		})
	}
}

func TestListAssets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAssetService(db)

	old := testutil.CreateTestAsset(t, db, "900", 2020, 3)
	current := testutil.CreateTestAsset(t, db, "1500", 2024, 3)

	views, err := svc.ListAssets(2025)
	testutil.AssertNoError(t, err)
	if len(views) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(views))
	}

	if views[0].ID != old.ID || views[0].Status != models.AssetStatusFullyDepreciated || !views[0].BookValue.IsZero() {
		t.Errorf("unexpected view for old asset %+v", views[0])
	}
	if views[1].ID != current.ID || views[1].Status != models.AssetStatusActive {
		t.Errorf("unexpected view for current asset %+v", views[1])
	}
	if !views[1].AnnualDepreciation.Equal(decimal.NewFromInt(500)) || !views[1].BookValue.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected 500 annual and 500 left, got %s/%s", views[1].AnnualDepreciation, views[1].BookValue)
	}
}

func TestDisposeAsset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAssetService(db)

	a := testutil.CreateTestAsset(t, db, "1500", 2024, 3)

	disposed, err := svc.DisposeAsset(a.ID, testutil.TestDate(2025, time.June, 1))
	testutil.AssertNoError(t, err)
	if disposed.DisposalDate == nil {
		t.Fatal("expected disposal date")
	}

	stored, err := svc.GetAsset(a.ID)
	testutil.AssertNoError(t, err)
	if stored.DisposalDate == nil || stored.DisposalDate.Year() != 2025 {
		t.Errorf("expected stored disposal date, got %v", stored.DisposalDate)
	}

	_, err = svc.DisposeAsset(a.ID, testutil.TestDate(2025, time.July, 1))
	testutil.AssertAppError(t, err, "INVALID_ASSET")

	b := testutil.CreateTestAsset(t, db, "600", 2024, 3)
	_, err = svc.DisposeAsset(b.ID, testutil.TestDate(2023, time.January, 1))
	testutil.AssertAppError(t, err, "INVALID_ASSET")

	_, err = svc.DisposeAsset("asset-missing", testutil.TestDate(2025, time.June, 1))
	testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")
}

func TestImportAssetsFromExcel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAssetService(db)

	f := excelize.NewFile()
	testutil.AssertNoError(t, f.SetSheetName("Sheet1", "Resultaat"))
	rows := [][]any{
		{"Omschrijving", "Bedrag", "", "", "", "Percentage", "", "Opmerking"},
		{"Omzet", 52000},
		{"Laptop", 1500, "", "", "", 0.3333, "", "aankoop 2024"},
		{"Behandeltafel", 3000, "", "", "", 0.2},
	}
	for i, row := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		testutil.AssertNoError(t, f.SetSheetRow("Resultaat", addr, &row))
	}
	buf, err := f.WriteToBuffer()
	testutil.AssertNoError(t, err)
	f.Close()
	data := buf.Bytes()

	res, err := svc.ImportFromExcel(bytes.NewReader(data), "", 2025)
	testutil.AssertNoError(t, err)
	if len(res.Imported) != 2 || res.Skipped != 0 {
		t.Fatalf("expected 2 imported assets, got %+v", res)
	}
	laptop := res.Imported[0]
	if laptop.PurchaseDate.Year() != 2024 || laptop.DepreciationYears != 3 || laptop.Source != models.AssetSourceExcelImport {
		t.Errorf("unexpected laptop %+v", laptop)
	}
	if table := res.Imported[1]; table.PurchaseDate.Year() != 2021 || table.DepreciationYears != 5 {
		t.Errorf("expected purchase year derived from the reference year, got %+v", table)
	}

	again, err := svc.ImportFromExcel(bytes.NewReader(data), "", 2025)
	testutil.AssertNoError(t, err)
	if len(again.Imported) != 0 || again.Skipped != 2 {
		t.Errorf("expected re-import to skip everything, got %+v", again)
	}

	_, err = svc.ImportFromExcel(bytes.NewReader(data), "Balans", 2025)
	testutil.AssertAppError(t, err, "IMPORT_FAILED")
}
