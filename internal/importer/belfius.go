package importer

import (
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"boekhouden/internal/logger"
	"boekhouden/internal/models"
)

// Belfius export layout.
const (
	belfiusHeaderLines = 13
	belfiusColumns     = 15
)

const (
	colAccount = iota
	colBookingDate
	colStatementNumber
	colTransactionNumber
	colCounterpartyAccount
	colCounterpartyName
	colStreet
	colPostalCity
	colDescription
	colValueDate
	colAmount
	colCurrency
	colBIC
	colCountry
	colCommunication
)

// MastercardExclusionReason is stamped on excluded credit card settlements.
const MastercardExclusionReason = "Mastercard settlement - details in PDF"

var mastercardPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)MASTERCARD.*AFREKENING`),
	regexp.MustCompile(`(?i)KREDIETKAART.*AFREKENING`),
	regexp.MustCompile(`6287522061`),
}

var (
	errUnsupportedCurrency = errors.New("unsupported currency")
	errZeroAmount          = errors.New("amount is zero")
)

// BelfiusReader parses Belfius CSV statement exports.
type BelfiusReader struct {
	// ExistingIDs holds ids already stored. New ids are added as rows are
	// read so duplicates inside one file are caught as well.
	ExistingIDs map[string]bool
	// FiscalYear drops rows booked in another year when non-zero.
	FiscalYear int
	// Force re-imports known ids instead of skipping them.
	Force bool
}

// Read parses one statement. Row problems are collected in the session
// instead of aborting the file.
func (br *BelfiusReader) Read(r io.Reader, filename string) ([]models.Transaction, models.ImportSession) {
	log := logger.Get()
	session := models.ImportSession{SourceFile: filename, FiscalYear: br.FiscalYear}
	if br.ExistingIDs == nil {
		br.ExistingIDs = make(map[string]bool)
	}

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var txs []models.Transaction
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				if perr.StartLine > belfiusHeaderLines {
					session.Errors = append(session.Errors, models.ImportError{File: filename, Line: perr.StartLine, Message: err.Error()})
				}
				continue
			}
			session.Errors = append(session.Errors, models.ImportError{File: filename, Message: "read file: " + err.Error()})
			break
		}
		line, _ := cr.FieldPos(0)
		if line <= belfiusHeaderLines || len(row) < belfiusColumns {
			continue
		}

		tx, err := parseBelfiusRow(row, filename)
		if err != nil {
			log.Warnw("skipping statement row", "file", filename, "line", line, "error", err)
			session.Errors = append(session.Errors, models.ImportError{
				File:    filename,
				Line:    line,
				Message: err.Error(),
				Raw:     strings.Join(row, ";"),
			})
			continue
		}

		if br.FiscalYear != 0 && tx.FiscalYear != br.FiscalYear {
			continue
		}
		if br.ExistingIDs[tx.ID] && !br.Force {
			session.TransactionsSkipped++
			continue
		}
		br.ExistingIDs[tx.ID] = true

		if isMastercardSettlement(&tx) {
			tx.IsExcluded = true
			tx.ExclusionReason = models.Str(MastercardExclusionReason)
			session.TransactionsExcluded++
		} else {
			session.TransactionsImported++
		}
		txs = append(txs, tx)
	}

	log.Infow("statement read",
		"file", filename,
		"imported", session.TransactionsImported,
		"skipped", session.TransactionsSkipped,
		"excluded", session.TransactionsExcluded,
		"errors", len(session.Errors),
	)
	return txs, session
}

func parseBelfiusRow(row []string, filename string) (models.Transaction, error) {
	field := func(i int) string { return strings.TrimSpace(row[i]) }

	booking, err := ParseBelgianDate(field(colBookingDate))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("booking date: %w", err)
	}
	value, err := ParseBelgianDate(field(colValueDate))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("value date: %w", err)
	}
	amount, err := ParseBelgianAmount(field(colAmount))
	if err != nil {
		return models.Transaction{}, err
	}
	if amount.IsZero() {
		return models.Transaction{}, errZeroAmount
	}
	currency := strings.ToUpper(field(colCurrency))
	if currency != "EUR" {
		return models.Transaction{}, fmt.Errorf("%w: %q", errUnsupportedCurrency, currency)
	}

	communication := field(colCommunication)
	description := field(colDescription)
	if description == "" {
		description = communication
	}

	stmt, num := field(colStatementNumber), field(colTransactionNumber)
	id := stmt + "-" + num
	if stmt == "" || num == "" {
		sum := md5.Sum([]byte(booking.Format("2006-01-02") + "|" + amount.StringFixed(2) + "|" + description))
		id = "NONUM-" + hex.EncodeToString(sum[:])[:8]
	}

	return models.Transaction{
		ID:                     id,
		SourceFile:             filename,
		SourceType:             models.SourceTypeBankCSV,
		StatementNumber:        models.Str(stmt),
		TransactionNumber:      models.Str(num),
		BookingDate:            booking,
		ValueDate:              value,
		Amount:                 amount,
		Currency:               currency,
		FiscalYear:             booking.Year(),
		OwnAccount:             models.Str(field(colAccount)),
		CounterpartyIBAN:       models.Str(field(colCounterpartyAccount)),
		CounterpartyName:       models.Str(field(colCounterpartyName)),
		CounterpartyStreet:     models.Str(field(colStreet)),
		CounterpartyPostalCity: models.Str(field(colPostalCity)),
		CounterpartyBIC:        models.Str(field(colBIC)),
		CounterpartyCountry:    models.Str(field(colCountry)),
		Description:            models.Str(description),
		Communication:          models.Str(communication),
	}, nil
}

func isMastercardSettlement(tx *models.Transaction) bool {
	for _, p := range mastercardPatterns {
		if (tx.Description != nil && p.MatchString(*tx.Description)) ||
			(tx.CounterpartyName != nil && p.MatchString(*tx.CounterpartyName)) {
			return true
		}
	}
	return false
}
