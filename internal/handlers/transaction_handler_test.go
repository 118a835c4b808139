package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"boekhouden/internal/categorizer"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
	"boekhouden/internal/services"
)

// --- mock transaction services ---

type mockTransactionService struct {
	listTransactionsFn func(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	getTransactionFn   func(id string) (*models.Transaction, error)
	assignCategoryFn   func(id, category string, therapeutic *bool) (*models.Transaction, error)
	clearCategoryFn    func(id string) (*models.Transaction, error)
}

func (m *mockTransactionService) ListTransactions(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(filter, page)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 50, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransaction(id string) (*models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(id)
	}
	return &models.Transaction{ID: id}, nil
}

func (m *mockTransactionService) AssignCategory(id, category string, therapeutic *bool) (*models.Transaction, error) {
	if m.assignCategoryFn != nil {
		return m.assignCategoryFn(id, category, therapeutic)
	}
	return &models.Transaction{ID: id, Category: &category}, nil
}

func (m *mockTransactionService) ClearCategory(id string) (*models.Transaction, error) {
	if m.clearCategoryFn != nil {
		return m.clearCategoryFn(id)
	}
	return &models.Transaction{ID: id}, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

type mockCategorizationService struct {
	categorizeFn func(ctx context.Context, year int, all, dryRun bool) (*categorizer.Result, error)
}

func (m *mockCategorizationService) Categorize(ctx context.Context, year int, all, dryRun bool) (*categorizer.Result, error) {
	if m.categorizeFn != nil {
		return m.categorizeFn(ctx, year, all, dryRun)
	}
	return &categorizer.Result{}, nil
}

var _ services.CategorizationServicer = (*mockCategorizationService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	auth := r.Group("", injectActor("owner"))
	auth.GET("/transactions", handler.ListTransactions)
	auth.GET("/transactions/:id", handler.GetTransaction)
	auth.PUT("/transactions/:id/category", handler.AssignCategory)
	auth.DELETE("/transactions/:id/category", handler.ClearCategory)
	auth.POST("/categorize", handler.Categorize)
	return r
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	t.Run("passes filters to the service", func(t *testing.T) {
		var got services.TransactionFilter
		var gotPage pagination.PageRequest
		txSvc := &mockTransactionService{
			listTransactionsFn: func(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
				got, gotPage = filter, page
				resp := pagination.NewPageResponse([]models.Transaction{{ID: "2025/002-0014", Amount: decimal.RequireFromString("-45.99")}}, 2, 10, 11)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockCategorizationService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions?year=2025&category=telefonie&search=proximus&from_date=2025-02-01&page=2&page_size=10", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Year == nil || *got.Year != 2025 || got.Category == nil || *got.Category != "telefonie" {
			t.Errorf("unexpected filter %+v", got)
		}
		if got.Search != "proximus" || got.FromDate == nil || got.FromDate.Day() != 1 || got.ToDate != nil {
			t.Errorf("unexpected filter %+v", got)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 10 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		result := parseJSON(t, rec)
		if result["total_items"].(float64) != 11 {
			t.Errorf("expected total_items 11, got %v", result["total_items"])
		}
	})

	t.Run("returns 400 on a bad date", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockCategorizationService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/transactions?from_date=01/02/2025", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	t.Run("decodes ids with a slash", func(t *testing.T) {
		var gotID string
		txSvc := &mockTransactionService{
			getTransactionFn: func(id string) (*models.Transaction, error) {
				gotID = id
				return &models.Transaction{ID: id}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockCategorizationService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions/2025%2F002-0014", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != "2025/002-0014" {
			t.Errorf("expected decoded id, got %q", gotID)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		txSvc := &mockTransactionService{
			getTransactionFn: func(string) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockCategorizationService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions/missing", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

func TestTransactionHandler_AssignCategory(t *testing.T) {
	t.Run("returns 200 and audits", func(t *testing.T) {
		var gotTherapeutic *bool
		txSvc := &mockTransactionService{
			assignCategoryFn: func(id, category string, therapeutic *bool) (*models.Transaction, error) {
				gotTherapeutic = therapeutic
				return &models.Transaction{ID: id, Category: &category, IsTherapeutic: true, IsManualOverride: true}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockCategorizationService{}, audit))

		rec := doRequest(r, "PUT", "/transactions/2025%2F002-0015/category", `{"category":"omzet","therapeutic":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotTherapeutic == nil || !*gotTherapeutic {
			t.Error("expected therapeutic flag to be passed")
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditAssignCategory ||
			audit.entries[0].resourceID != "2025/002-0015" || audit.entries[0].actor != "owner" {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 400 on missing category", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockCategorizationService{}, &mockAuditService{}))
		rec := doRequest(r, "PUT", "/transactions/x/category", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on therapeutic non-revenue", func(t *testing.T) {
		txSvc := &mockTransactionService{
			assignCategoryFn: func(string, string, *bool) (*models.Transaction, error) {
				return nil, apperrors.ErrTherapeuticCategory
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockCategorizationService{}, audit))

		rec := doRequest(r, "PUT", "/transactions/x/category", `{"category":"telefonie","therapeutic":true}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "THERAPEUTIC_CATEGORY")
		if len(audit.entries) != 0 {
			t.Error("failed assignments must not be audited")
		}
	})
}

func TestTransactionHandler_ClearCategory(t *testing.T) {
	audit := &mockAuditService{}
	r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockCategorizationService{}, audit))

	rec := doRequest(r, "DELETE", "/transactions/2025%2F002-0014/category", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(audit.entries) != 1 || audit.entries[0].action != services.AuditClearCategory {
		t.Errorf("unexpected audit entries %+v", audit.entries)
	}
}

func TestTransactionHandler_Categorize(t *testing.T) {
	t.Run("runs with options", func(t *testing.T) {
		var gotYear int
		var gotAll, gotDry bool
		catSvc := &mockCategorizationService{
			categorizeFn: func(_ context.Context, year int, all, dryRun bool) (*categorizer.Result, error) {
				gotYear, gotAll, gotDry = year, all, dryRun
				return &categorizer.Result{Categorized: 3, Uncategorized: 1}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, catSvc, audit))

		rec := doRequest(r, "POST", "/categorize", `{"year":2025,"all":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotYear != 2025 || !gotAll || gotDry {
			t.Errorf("unexpected options %d %v %v", gotYear, gotAll, gotDry)
		}
		res := parseJSON(t, rec)["result"].(map[string]interface{})
		if res["categorized"].(float64) != 3 {
			t.Errorf("expected 3 categorized, got %v", res["categorized"])
		}
		if len(audit.entries) != 1 {
			t.Errorf("expected the run to be audited, got %d entries", len(audit.entries))
		}
	})

	t.Run("dry run with empty body is not audited", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockCategorizationService{}, audit))

		rec := doRequest(r, "POST", "/categorize", `{"dry_run":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.entries) != 0 {
			t.Error("dry runs must not be audited")
		}

		rec = doRequest(r, "POST", "/categorize", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for empty body, got %d", rec.Code)
		}
	})

	t.Run("returns 422 on invalid configuration", func(t *testing.T) {
		catSvc := &mockCategorizationService{
			categorizeFn: func(context.Context, int, bool, bool) (*categorizer.Result, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidConfig, "rule-009: invalid regex")
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, catSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categorize", `{}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CONFIG")
	})
}
