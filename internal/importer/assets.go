package importer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"boekhouden/internal/logger"
	"boekhouden/internal/models"
)

// DefaultAssetSheet is the result sheet of the yearly bookkeeping workbook.
const DefaultAssetSheet = "Resultaat"

// Column positions on the result sheet.
const (
	assetColName   = 0
	assetColAmount = 1
	assetColRate   = 5
	assetColNotes  = 7
)

// ErrNoAssets is returned when a sheet holds no depreciation rows.
var ErrNoAssets = errors.New("no depreciation entries found")

var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// AssetReader extracts depreciable assets from a result sheet. A row is a
// depreciation entry when its rate column holds a fraction between 0 and 1,
// e.g. 0.3333 for three years.
type AssetReader struct {
	Sheet string
	// RefYear is the current fiscal year. Rows whose notes carry no year
	// are assumed to be in their last depreciation year.
	RefYear int
}

// Read parses the workbook. Incomplete rows are logged and skipped.
func (ar *AssetReader) Read(r io.Reader) ([]models.Asset, error) {
	sheet := ar.Sheet
	if sheet == "" {
		sheet = DefaultAssetSheet
	}
	refYear := ar.RefYear
	if refYear == 0 {
		refYear = time.Now().Year()
	}

	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	if idx, _ := wb.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	log := logger.Get()
	var assets []models.Asset
	for i, row := range rows {
		rate, ok := depreciationRate(cell(row, assetColRate))
		if !ok {
			continue
		}
		name := strings.TrimSpace(cell(row, assetColName))
		amount, err := parseCellAmount(cell(row, assetColAmount))
		if name == "" || err != nil || amount.IsZero() {
			log.Warnw("skipping incomplete asset row", "sheet", sheet, "row", i+1, "name", name)
			continue
		}

		years := int(math.Round(1 / rate))
		years = max(models.MinDepreciationYears, min(models.MaxDepreciationYears, years))

		notes := strings.TrimSpace(cell(row, assetColNotes))
		purchaseYear, ok := earliestYear(notes)
		if !ok {
			purchaseYear = refYear - years + 1
		}

		assets = append(assets, models.Asset{
			Name:              name,
			PurchaseDate:      time.Date(purchaseYear, time.January, 1, 0, 0, 0, 0, time.UTC),
			PurchaseAmount:    amount.Abs(),
			DepreciationYears: years,
			Notes:             notes,
			Source:            models.AssetSourceExcelImport,
		})
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("%w in sheet %q", ErrNoAssets, sheet)
	}
	log.Infow("assets read", "sheet", sheet, "assets", len(assets))
	return assets, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func depreciationRate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || v >= 1 {
		return 0, false
	}
	return v, true
}

func parseCellAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if d, err := decimal.NewFromString(s); err == nil {
		return d, nil
	}
	return ParseBelgianAmount(s)
}

func earliestYear(notes string) (int, bool) {
	found := 0
	for _, m := range yearPattern.FindAllString(notes, -1) {
		y, _ := strconv.Atoi(m)
		if found == 0 || y < found {
			found = y
		}
	}
	return found, found != 0
}
