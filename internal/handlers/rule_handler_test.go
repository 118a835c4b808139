package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
	"boekhouden/internal/services"
)

// --- mock rule and category services ---

type mockRuleService struct {
	listRulesFn   func() []models.CategoryRule
	addRuleFn     func(rule models.CategoryRule) (*models.CategoryRule, error)
	disableRuleFn func(id string) (*models.CategoryRule, error)
	testRuleFn    func(field models.MatchField, value string, accountType models.AccountType) ([]services.RuleMatch, error)
	bootstrapFn   func(paths []string, opts services.BootstrapOptions) (*services.BootstrapResult, error)
}

func (m *mockRuleService) ListRules() []models.CategoryRule {
	if m.listRulesFn != nil {
		return m.listRulesFn()
	}
	return []models.CategoryRule{}
}

func (m *mockRuleService) AddRule(rule models.CategoryRule) (*models.CategoryRule, error) {
	if m.addRuleFn != nil {
		return m.addRuleFn(rule)
	}
	rule.ID = "rule-001"
	return &rule, nil
}

func (m *mockRuleService) DisableRule(id string) (*models.CategoryRule, error) {
	if m.disableRuleFn != nil {
		return m.disableRuleFn(id)
	}
	return &models.CategoryRule{ID: id}, nil
}

func (m *mockRuleService) TestRule(field models.MatchField, value string, accountType models.AccountType) ([]services.RuleMatch, error) {
	if m.testRuleFn != nil {
		return m.testRuleFn(field, value, accountType)
	}
	return []services.RuleMatch{}, nil
}

func (m *mockRuleService) Bootstrap(paths []string, opts services.BootstrapOptions) (*services.BootstrapResult, error) {
	if m.bootstrapFn != nil {
		return m.bootstrapFn(paths, opts)
	}
	return &services.BootstrapResult{}, nil
}

var _ services.RuleServicer = (*mockRuleService)(nil)

type mockCategoryService struct {
	categories []models.Category
}

func (m *mockCategoryService) ListCategories() []models.Category {
	return m.categories
}

func (m *mockCategoryService) GetCategory(id string) (*models.Category, error) {
	for i := range m.categories {
		if m.categories[i].ID == id {
			return &m.categories[i], nil
		}
	}
	return nil, apperrors.ErrCategoryNotFound
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupRuleRouter(handler *RuleHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActor("owner"))
	auth.GET("/rules", handler.ListRules)
	auth.POST("/rules", handler.CreateRule)
	auth.POST("/rules/test", handler.TestRule)
	auth.POST("/rules/:id/disable", handler.DisableRule)
	return r
}

func TestRuleHandler_ListRules(t *testing.T) {
	svc := &mockRuleService{
		listRulesFn: func() []models.CategoryRule {
			return []models.CategoryRule{{ID: "rule-001"}, {ID: "rule-002"}}
		},
	}
	r := setupRuleRouter(NewRuleHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/rules", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rules := parseJSON(t, rec)["rules"].([]interface{}); len(rules) != 2 {
		t.Errorf("expected 2 rules, got %d", len(rules))
	}
}

func TestRuleHandler_CreateRule(t *testing.T) {
	t.Run("returns 201 and audits", func(t *testing.T) {
		var got models.CategoryRule
		svc := &mockRuleService{
			addRuleFn: func(rule models.CategoryRule) (*models.CategoryRule, error) {
				got = rule
				rule.ID = "rule-012"
				return &rule, nil
			},
		}
		audit := &mockAuditService{}
		r := setupRuleRouter(NewRuleHandler(svc, audit))

		rec := doRequest(r, "POST", "/rules", `{"pattern":"^RIZIV","pattern_type":"regex","match_field":"description","target_category":"omzet","is_therapeutic":true}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.PatternType != models.PatternTypeRegex || got.MatchField != models.MatchFieldDescription {
			t.Errorf("unexpected rule %+v", got)
		}
		if got.IsTherapeutic == nil || !*got.IsTherapeutic {
			t.Error("expected therapeutic flag")
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceID != "rule-012" || audit.entries[0].action != services.AuditRuleAdd {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 400 on unknown pattern type", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}, &mockAuditService{}))
		rec := doRequest(r, "POST", "/rules", `{"pattern":"x","pattern_type":"glob","target_category":"omzet"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 on duplicate id", func(t *testing.T) {
		svc := &mockRuleService{
			addRuleFn: func(models.CategoryRule) (*models.CategoryRule, error) {
				return nil, apperrors.ErrDuplicateRule
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/rules", `{"id":"rule-001","pattern":"x","target_category":"omzet"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_RULE")
	})

	t.Run("returns 422 when the rule set becomes invalid", func(t *testing.T) {
		svc := &mockRuleService{
			addRuleFn: func(models.CategoryRule) (*models.CategoryRule, error) {
				return nil, apperrors.ErrInvalidConfig
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/rules", `{"pattern":"x","target_category":"onbekend"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})
}

func TestRuleHandler_DisableRule(t *testing.T) {
	t.Run("returns 200", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}, audit))

		rec := doRequest(r, "POST", "/rules/rule-003/disable", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditRuleDisable {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 404 on unknown rule", func(t *testing.T) {
		svc := &mockRuleService{
			disableRuleFn: func(string) (*models.CategoryRule, error) { return nil, apperrors.ErrRuleNotFound },
		}
		r := setupRuleRouter(NewRuleHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/rules/rule-999/disable", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RULE_NOT_FOUND")
	})
}

func TestRuleHandler_TestRule(t *testing.T) {
	t.Run("passes field and account type", func(t *testing.T) {
		var gotField models.MatchField
		var gotType models.AccountType
		svc := &mockRuleService{
			testRuleFn: func(field models.MatchField, value string, accountType models.AccountType) ([]services.RuleMatch, error) {
				gotField, gotType = field, accountType
				return []services.RuleMatch{{Rule: models.CategoryRule{ID: "rule-001"}, Selected: true}}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/rules/test", `{"value":"Winstverdeling","field":"description","account_type":"maatschap"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotField != models.MatchFieldDescription || gotType != models.AccountTypeMaatschap {
			t.Errorf("unexpected arguments %q %q", gotField, gotType)
		}
		matches := parseJSON(t, rec)["matches"].([]interface{})
		if len(matches) != 1 || matches[0].(map[string]interface{})["selected"] != true {
			t.Errorf("unexpected matches %v", matches)
		}
	})

	t.Run("returns 400 on unknown account type", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}, &mockAuditService{}))
		rec := doRequest(r, "POST", "/rules/test", `{"value":"x","account_type":"joint"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler(t *testing.T) {
	svc := &mockCategoryService{categories: []models.Category{
		{ID: "omzet", Name: "Omzet", Type: models.CategoryTypeIncome, TaxDeductible: true, DeductibilityPct: 100},
		{ID: "restaurant", Name: "Restaurant", Type: models.CategoryTypeExpense, TaxDeductible: true, DeductibilityPct: 69},
	}}
	handler := NewCategoryHandler(svc)
	r := gin.New()
	r.GET("/categories", handler.ListCategories)
	r.GET("/categories/:id", handler.GetCategory)

	t.Run("lists categories", func(t *testing.T) {
		rec := doRequest(r, "GET", "/categories", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if cats := parseJSON(t, rec)["categories"].([]interface{}); len(cats) != 2 {
			t.Errorf("expected 2 categories, got %d", len(cats))
		}
	})

	t.Run("gets a category", func(t *testing.T) {
		rec := doRequest(r, "GET", "/categories/restaurant", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["deductibility_pct"].(float64) != 69 {
			t.Errorf("unexpected category %v", cat)
		}
	})

	t.Run("returns 404 on unknown id", func(t *testing.T) {
		rec := doRequest(r, "GET", "/categories/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}
