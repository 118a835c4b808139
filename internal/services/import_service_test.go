package services

import (
	"context"
	"strings"
	"testing"

	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
	"boekhouden/internal/testutil"
)

func statement(rows ...string) string {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("Boekingsdatum vanaf;01/01/2025\n")
	}
	b.WriteString("Rekening;Boekingsdatum;Rekeninguittrekselnummer;Transactienummer;Rekening tegenpartij;Naam tegenpartij bevat;Straat en nummer;Postcode en plaats;Transactie;Valutadatum;Bedrag;Devies;BIC;Landcode;Mededelingen\n")
	for _, r := range rows {
		b.WriteString(r)
		b.WriteString("\n")
	}
	return b.String()
}

const (
	stmtProximus   = "BE05 0636 4778 9475;03/02/2025;2025/002;0014;BE32 4352 0000 0000;PROXIMUS NV;;;EUROPESE DOMICILIERING;03/02/2025;-45,99;EUR;BBRUBEBB;BE;Factuur 123"
	stmtMastercard = "BE05 0636 4778 9475;10/02/2025;2025/003;0001;;;;;MASTERCARD AFREKENING 6287522061;10/02/2025;-312,40;EUR;;;"
	stmtZero       = "BE05 0636 4778 9475;12/02/2025;2025/003;0003;;SHOP;;;;12/02/2025;0,00;EUR;;;"
)

func TestImportCSV(t *testing.T) {
	t.Run("stores transactions and session", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewImportService(db)

		session, err := svc.ImportCSV(context.Background(), "2025.csv",
			strings.NewReader(statement(stmtProximus, stmtMastercard, stmtZero)), ImportOptions{})
		testutil.AssertNoError(t, err)

		if session.TransactionsImported != 1 || session.TransactionsExcluded != 1 || len(session.Errors) != 1 {
			t.Errorf("unexpected session %+v", session)
		}

		var count int64
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
		if count != 2 {
			t.Errorf("expected 2 stored transactions, got %d", count)
		}

		page, err := svc.ListSessions(pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 || page.Data[0].SourceFile != "2025.csv" || len(page.Data[0].Errors) != 1 {
			t.Errorf("unexpected sessions %+v", page.Data)
		}
	})

	t.Run("duplicates are skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewImportService(db)

		_, err := svc.ImportCSV(context.Background(), "2025.csv", strings.NewReader(statement(stmtProximus)), ImportOptions{})
		testutil.AssertNoError(t, err)

		session, err := svc.ImportCSV(context.Background(), "2025.csv", strings.NewReader(statement(stmtProximus)), ImportOptions{})
		testutil.AssertNoError(t, err)
		if session.TransactionsImported != 0 || session.TransactionsSkipped != 1 {
			t.Errorf("expected the row to be skipped, got %+v", session)
		}
	})

	t.Run("force keeps categorization", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewImportService(db)

		_, err := svc.ImportCSV(context.Background(), "2025.csv", strings.NewReader(statement(stmtProximus)), ImportOptions{})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).Where("id = ?", "2025/002-0014").
			Updates(map[string]any{"category": "telefonie", "is_manual_override": true}).Error)

		updated := strings.Replace(stmtProximus, "Factuur 123", "Factuur 124", 1)
		session, err := svc.ImportCSV(context.Background(), "2025-bis.csv", strings.NewReader(statement(updated)), ImportOptions{Force: true})
		testutil.AssertNoError(t, err)
		if session.TransactionsImported != 1 {
			t.Errorf("expected forced row to be imported, got %+v", session)
		}

		var tx models.Transaction
		testutil.AssertNoError(t, db.First(&tx, "id = ?", "2025/002-0014").Error)
		if models.Deref(tx.Communication) != "Factuur 124" || tx.SourceFile != "2025-bis.csv" {
			t.Errorf("expected bank fields to be refreshed, got %+v", tx)
		}
		if !tx.HasCategory("telefonie") || !tx.IsManualOverride {
			t.Errorf("expected categorization to survive, got %+v", tx)
		}
	})

	t.Run("fiscal year filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewImportService(db)

		session, err := svc.ImportCSV(context.Background(), "2025.csv", strings.NewReader(statement(stmtProximus)), ImportOptions{FiscalYear: 2024})
		testutil.AssertNoError(t, err)
		if session.TransactionsImported != 0 || session.FiscalYear != 2024 {
			t.Errorf("expected rows outside 2024 to be dropped, got %+v", session)
		}
	})

	t.Run("dry run stores nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewImportService(db)

		session, err := svc.ImportCSV(context.Background(), "2025.csv",
			strings.NewReader(statement(stmtProximus, stmtMastercard)), ImportOptions{DryRun: true})
		testutil.AssertNoError(t, err)
		if session.TransactionsImported != 1 || session.TransactionsExcluded != 1 {
			t.Errorf("expected counts of a real import, got %+v", session)
		}

		var count int64
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
		if count != 0 {
			t.Errorf("expected no stored transactions, got %d", count)
		}
		page, err := svc.ListSessions(pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 0 {
			t.Errorf("expected no stored session, got %d", page.TotalItems)
		}
	})
}
