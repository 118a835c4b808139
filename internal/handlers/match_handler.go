package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
	"boekhouden/internal/services"
)

// MatchHandler handles reconciliation of private expenses.
type MatchHandler struct {
	matchService services.MatchServicer
	auditService services.AuditServicer
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matchService services.MatchServicer, auditService services.AuditServicer) *MatchHandler {
	return &MatchHandler{matchService: matchService, auditService: auditService}
}

// RunMatchesRequest represents the request payload for a reconciliation run.
type RunMatchesRequest struct {
	Year   int  `json:"year" binding:"omitempty,min=1900,max=2999"`
	DryRun bool `json:"dry_run"`
}

// CreateMatchRequest pairs an expense with its reimbursement by hand.
type CreateMatchRequest struct {
	ExpenseID       string `json:"expense_id" binding:"required"`
	ReimbursementID string `json:"reimbursement_id" binding:"required"`
	Note            string `json:"note" binding:"max=500"`
}

// RejectMatchRequest carries an optional note.
type RejectMatchRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// ListMatchesQuery filters GET /matches.
type ListMatchesQuery struct {
	Status string `form:"status" binding:"omitempty,match_status"`
}

// RunMatches handles a reconciliation run
// @Summary     Run reconciliation
// @Description Pair private expenses with reimbursements. Unique pairs are accepted, contested ones stored as pending.
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RunMatchesRequest false "Run options"
// @Success     200 {object} map[string]interface{} "Run result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /matches/run [post]
func (h *MatchHandler) RunMatches(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RunMatchesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}

	run, err := h.matchService.Run(c.Request.Context(), req.Year, req.DryRun)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !req.DryRun {
		h.auditService.Log(actor, services.AuditMatchRun, "match", "", c.ClientIP(),
			map[string]interface{}{"year": req.Year, "accepted": len(run.Accepted), "pending": run.Pending})
	}

	c.JSON(http.StatusOK, gin.H{"run": run})
}

// ListMatches handles listing decisions
// @Summary     List match decisions
// @Tags        matches
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "auto, manual, rejected or pending"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated decisions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /matches [get]
func (h *MatchHandler) ListMatches(c *gin.Context) {
	var q ListMatchesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var status *models.MatchStatus
	if q.Status != "" {
		s := models.MatchStatus(q.Status)
		status = &s
	}

	result, err := h.matchService.List(status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateMatch handles a manual pairing
// @Summary     Create a match
// @Description Link an expense and a reimbursement. The score is not checked and an earlier rejection is overridden.
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMatchRequest true "Pair"
// @Success     201 {object} map[string]interface{} "Decision"
// @Failure     400 {object} ErrorResponse "Not a private expense pair"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Already matched"
// @Router      /matches [post]
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	decision, err := h.matchService.Create(req.ExpenseID, req.ReimbursementID, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditMatchCreate, "match", decision.ID, c.ClientIP(),
		map[string]interface{}{"expense_id": req.ExpenseID, "reimbursement_id": req.ReimbursementID})

	c.JSON(http.StatusCreated, gin.H{"match": decision})
}

// AcceptMatch handles accepting a pending decision
// @Summary     Accept a pending match
// @Tags        matches
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Decision id"
// @Success     200 {object} map[string]interface{} "Decision"
// @Failure     404 {object} ErrorResponse "Match not found"
// @Failure     409 {object} ErrorResponse "Already matched or rejected"
// @Router      /matches/{id}/accept [post]
func (h *MatchHandler) AcceptMatch(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	decision, err := h.matchService.Accept(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditMatchAccept, "match", decision.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"match": decision})
}

// RejectMatch handles rejecting a decision
// @Summary     Reject a match
// @Description Reject a decision. The pair is freed and never proposed again.
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true  "Decision id"
// @Param       request body RejectMatchRequest false "Note"
// @Success     200 {object} map[string]interface{} "Decision"
// @Failure     404 {object} ErrorResponse "Match not found"
// @Router      /matches/{id}/reject [post]
func (h *MatchHandler) RejectMatch(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RejectMatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}

	decision, err := h.matchService.Reject(c.Param("id"), req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditMatchReject, "match", decision.ID, c.ClientIP(),
		map[string]interface{}{"note": req.Note})

	c.JSON(http.StatusOK, gin.H{"match": decision})
}

// RejectPair handles rejecting a pair that has no decision yet
// @Summary     Reject a pair
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMatchRequest true "Pair"
// @Success     200 {object} map[string]interface{} "Decision"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /matches/reject [post]
func (h *MatchHandler) RejectPair(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	decision, err := h.matchService.RejectPair(req.ExpenseID, req.ReimbursementID, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditMatchReject, "match", decision.ID, c.ClientIP(),
		map[string]interface{}{"expense_id": req.ExpenseID, "reimbursement_id": req.ReimbursementID})

	c.JSON(http.StatusOK, gin.H{"match": decision})
}
