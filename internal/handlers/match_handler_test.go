package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
	"boekhouden/internal/reconcile"
	"boekhouden/internal/services"
)

// --- mock match service ---

type mockMatchService struct {
	runFn        func(ctx context.Context, year int, dryRun bool) (*services.MatchRun, error)
	listFn       func(status *models.MatchStatus, page pagination.PageRequest) (*pagination.PageResponse[models.MatchDecision], error)
	createFn     func(expenseID, reimbursementID, note string) (*models.MatchDecision, error)
	acceptFn     func(decisionID string) (*models.MatchDecision, error)
	rejectFn     func(decisionID, note string) (*models.MatchDecision, error)
	rejectPairFn func(expenseID, reimbursementID, note string) (*models.MatchDecision, error)
}

func (m *mockMatchService) Run(ctx context.Context, year int, dryRun bool) (*services.MatchRun, error) {
	if m.runFn != nil {
		return m.runFn(ctx, year, dryRun)
	}
	return &services.MatchRun{DryRun: dryRun}, nil
}

func (m *mockMatchService) List(status *models.MatchStatus, page pagination.PageRequest) (*pagination.PageResponse[models.MatchDecision], error) {
	if m.listFn != nil {
		return m.listFn(status, page)
	}
	resp := pagination.NewPageResponse([]models.MatchDecision{}, 1, 50, 0)
	return &resp, nil
}

func (m *mockMatchService) Create(expenseID, reimbursementID, note string) (*models.MatchDecision, error) {
	if m.createFn != nil {
		return m.createFn(expenseID, reimbursementID, note)
	}
	return decision("m-1", expenseID, reimbursementID, models.MatchStatusManual), nil
}

func (m *mockMatchService) Accept(decisionID string) (*models.MatchDecision, error) {
	if m.acceptFn != nil {
		return m.acceptFn(decisionID)
	}
	d := decision(decisionID, "e", "r", models.MatchStatusManual)
	return d, nil
}

func (m *mockMatchService) Reject(decisionID, note string) (*models.MatchDecision, error) {
	if m.rejectFn != nil {
		return m.rejectFn(decisionID, note)
	}
	d := decision(decisionID, "e", "r", models.MatchStatusRejected)
	d.Note = note
	return d, nil
}

func (m *mockMatchService) RejectPair(expenseID, reimbursementID, note string) (*models.MatchDecision, error) {
	if m.rejectPairFn != nil {
		return m.rejectPairFn(expenseID, reimbursementID, note)
	}
	return decision("m-2", expenseID, reimbursementID, models.MatchStatusRejected), nil
}

var _ services.MatchServicer = (*mockMatchService)(nil)

func decision(id, expenseID, reimbursementID string, status models.MatchStatus) *models.MatchDecision {
	d := &models.MatchDecision{ExpenseID: expenseID, ReimbursementID: reimbursementID, Status: status}
	d.ID = id
	return d
}

func setupMatchRouter(handler *MatchHandler) *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	auth := r.Group("", injectActor("owner"))
	auth.POST("/matches/run", handler.RunMatches)
	auth.GET("/matches", handler.ListMatches)
	auth.POST("/matches", handler.CreateMatch)
	auth.POST("/matches/reject", handler.RejectPair)
	auth.POST("/matches/:id/accept", handler.AcceptMatch)
	auth.POST("/matches/:id/reject", handler.RejectMatch)
	return r
}

func TestMatchHandler_RunMatches(t *testing.T) {
	t.Run("returns the run and audits it", func(t *testing.T) {
		var gotYear int
		svc := &mockMatchService{
			runFn: func(_ context.Context, year int, dryRun bool) (*services.MatchRun, error) {
				gotYear = year
				return &services.MatchRun{
					Result:  reconcile.Result{Accepted: []models.MatchDecision{*decision("m-1", "e", "r", models.MatchStatusAuto)}},
					Pending: 2,
					DryRun:  dryRun,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupMatchRouter(NewMatchHandler(svc, audit))

		rec := doRequest(r, "POST", "/matches/run", `{"year":2025}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotYear != 2025 {
			t.Errorf("expected year 2025, got %d", gotYear)
		}
		run := parseJSON(t, rec)["run"].(map[string]interface{})
		if run["pending"].(float64) != 2 || len(run["accepted"].([]interface{})) != 1 {
			t.Errorf("unexpected run %v", run)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditMatchRun {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("dry run is not audited", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupMatchRouter(NewMatchHandler(&mockMatchService{}, audit))

		rec := doRequest(r, "POST", "/matches/run", `{"dry_run":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.entries) != 0 {
			t.Error("dry runs must not be audited")
		}
	})

	t.Run("returns 400 on out of range year", func(t *testing.T) {
		r := setupMatchRouter(NewMatchHandler(&mockMatchService{}, &mockAuditService{}))
		rec := doRequest(r, "POST", "/matches/run", `{"year":25}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestMatchHandler_ListMatches(t *testing.T) {
	t.Run("filters by status", func(t *testing.T) {
		var got *models.MatchStatus
		svc := &mockMatchService{
			listFn: func(status *models.MatchStatus, page pagination.PageRequest) (*pagination.PageResponse[models.MatchDecision], error) {
				got = status
				resp := pagination.NewPageResponse([]models.MatchDecision{*decision("m-1", "e", "r", models.MatchStatusPending)}, 1, 50, 1)
				return &resp, nil
			},
		}
		r := setupMatchRouter(NewMatchHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/matches?status=pending", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got == nil || *got != models.MatchStatusPending {
			t.Errorf("expected pending filter, got %v", got)
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		r := setupMatchRouter(NewMatchHandler(&mockMatchService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/matches?status=maybe", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestMatchHandler_CreateMatch(t *testing.T) {
	t.Run("returns 201", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupMatchRouter(NewMatchHandler(&mockMatchService{}, audit))

		rec := doRequest(r, "POST", "/matches", `{"expense_id":"2025/001-0001","reimbursement_id":"2025/001-0002"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		match := parseJSON(t, rec)["match"].(map[string]interface{})
		if match["status"] != "manual" || match["expense_id"] != "2025/001-0001" {
			t.Errorf("unexpected match %v", match)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditMatchCreate || audit.entries[0].resourceID != "m-1" {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 400 on missing ids", func(t *testing.T) {
		r := setupMatchRouter(NewMatchHandler(&mockMatchService{}, &mockAuditService{}))
		rec := doRequest(r, "POST", "/matches", `{"expense_id":"a"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when already matched", func(t *testing.T) {
		svc := &mockMatchService{
			createFn: func(string, string, string) (*models.MatchDecision, error) {
				return nil, apperrors.ErrAlreadyMatched
			},
		}
		audit := &mockAuditService{}
		r := setupMatchRouter(NewMatchHandler(svc, audit))

		rec := doRequest(r, "POST", "/matches", `{"expense_id":"a","reimbursement_id":"b"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALREADY_MATCHED")
		if len(audit.entries) != 0 {
			t.Error("failed pairings must not be audited")
		}
	})
}

func TestMatchHandler_AcceptAndReject(t *testing.T) {
	t.Run("accept returns 200", func(t *testing.T) {
		var gotID string
		svc := &mockMatchService{
			acceptFn: func(id string) (*models.MatchDecision, error) {
				gotID = id
				return decision(id, "e", "r", models.MatchStatusManual), nil
			},
		}
		r := setupMatchRouter(NewMatchHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/matches/m-7/accept", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != "m-7" {
			t.Errorf("expected m-7, got %q", gotID)
		}
	})

	t.Run("accept of a rejected pair returns 409", func(t *testing.T) {
		svc := &mockMatchService{
			acceptFn: func(string) (*models.MatchDecision, error) { return nil, apperrors.ErrPairRejected },
		}
		r := setupMatchRouter(NewMatchHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/matches/m-7/accept", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PAIR_REJECTED")
	})

	t.Run("reject passes the note", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupMatchRouter(NewMatchHandler(&mockMatchService{}, audit))

		rec := doRequest(r, "POST", "/matches/m-7/reject", `{"note":"andere aankoop"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		match := parseJSON(t, rec)["match"].(map[string]interface{})
		if match["status"] != "rejected" || match["note"] != "andere aankoop" {
			t.Errorf("unexpected match %v", match)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditMatchReject {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("reject without body", func(t *testing.T) {
		r := setupMatchRouter(NewMatchHandler(&mockMatchService{}, &mockAuditService{}))
		rec := doRequest(r, "POST", "/matches/m-7/reject", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("reject of unknown decision returns 404", func(t *testing.T) {
		svc := &mockMatchService{
			rejectFn: func(string, string) (*models.MatchDecision, error) { return nil, apperrors.ErrMatchNotFound },
		}
		r := setupMatchRouter(NewMatchHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/matches/nope/reject", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "MATCH_NOT_FOUND")
	})

	t.Run("reject pair", func(t *testing.T) {
		var gotE, gotR string
		svc := &mockMatchService{
			rejectPairFn: func(e, r, _ string) (*models.MatchDecision, error) {
				gotE, gotR = e, r
				return decision("m-3", e, r, models.MatchStatusRejected), nil
			},
		}
		r := setupMatchRouter(NewMatchHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/matches/reject", `{"expense_id":"a","reimbursement_id":"b"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotE != "a" || gotR != "b" {
			t.Errorf("unexpected pair %q %q", gotE, gotR)
		}
	})
}
