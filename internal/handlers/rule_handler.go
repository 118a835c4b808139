package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boekhouden/internal/models"
	"boekhouden/internal/services"
)

// RuleHandler handles the categorization rules.
type RuleHandler struct {
	ruleService  services.RuleServicer
	auditService services.AuditServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer, auditService services.AuditServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService, auditService: auditService}
}

// CreateRuleRequest represents the request payload for a new rule.
// Pattern type defaults to contains and match field to counterparty_name.
type CreateRuleRequest struct {
	ID             string `json:"id" binding:"max=50"`
	Pattern        string `json:"pattern" binding:"required,max=200"`
	PatternType    string `json:"pattern_type" binding:"omitempty,pattern_type"`
	MatchField     string `json:"match_field" binding:"omitempty,match_field"`
	TargetCategory string `json:"target_category" binding:"required,max=100"`
	Priority       int    `json:"priority" binding:"omitempty,min=1,max=10000"`
	IsTherapeutic  *bool  `json:"is_therapeutic"`
	Notes          string `json:"notes" binding:"max=500"`
}

// TestRuleRequest asks which rules match a sample value.
type TestRuleRequest struct {
	Value       string `json:"value" binding:"required,max=500"`
	Field       string `json:"field" binding:"omitempty,match_field"`
	AccountType string `json:"account_type" binding:"omitempty,account_type"`
}

// ListRules handles listing rules
// @Summary     List rules
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Rules in file order"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /rules [get]
func (h *RuleHandler) ListRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.ruleService.ListRules()})
}

// CreateRule handles adding a rule
// @Summary     Add a rule
// @Description Validate the rule against the categories and the other rules, then save rules.yaml
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRuleRequest true "Rule"
// @Success     201 {object} map[string]interface{} "Rule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate rule id"
// @Failure     422 {object} ErrorResponse "Rule would make the configuration invalid"
// @Router      /rules [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	rule, err := h.ruleService.AddRule(models.CategoryRule{
		ID:             req.ID,
		Pattern:        req.Pattern,
		PatternType:    models.PatternType(req.PatternType),
		MatchField:     models.MatchField(req.MatchField),
		TargetCategory: req.TargetCategory,
		Priority:       req.Priority,
		IsTherapeutic:  req.IsTherapeutic,
		Notes:          req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditRuleAdd, "rule", rule.ID, c.ClientIP(),
		map[string]interface{}{"pattern": rule.Pattern, "target_category": rule.TargetCategory})

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// DisableRule handles switching a rule off
// @Summary     Disable a rule
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule id"
// @Success     200 {object} map[string]interface{} "Rule"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /rules/{id}/disable [post]
func (h *RuleHandler) DisableRule(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rule, err := h.ruleService.DisableRule(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditRuleDisable, "rule", rule.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// TestRule handles a rule dry run on a sample value
// @Summary     Test rules
// @Description List the enabled rules matching a value and mark the one that would be applied
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TestRuleRequest true "Sample"
// @Success     200 {object} map[string]interface{} "Matching rules"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /rules/test [post]
func (h *RuleHandler) TestRule(c *gin.Context) {
	var req TestRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	matches, err := h.ruleService.TestRule(models.MatchField(req.Field), req.Value, models.AccountType(req.AccountType))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
