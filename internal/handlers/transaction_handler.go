package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boekhouden/internal/pagination"
	"boekhouden/internal/services"
)

// TransactionHandler handles transaction queries and manual categorization.
type TransactionHandler struct {
	transactionService    services.TransactionServicer
	categorizationService services.CategorizationServicer
	auditService          services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	transactionService services.TransactionServicer,
	categorizationService services.CategorizationServicer,
	auditService services.AuditServicer,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService:    transactionService,
		categorizationService: categorizationService,
		auditService:          auditService,
	}
}

// ListTransactionsQuery holds the filters of GET /transactions.
type ListTransactionsQuery struct {
	Year            *int   `form:"year" binding:"omitempty,min=1900,max=2999"`
	Category        string `form:"category" binding:"max=100"`
	Uncategorized   bool   `form:"uncategorized"`
	Private         bool   `form:"private"`
	Search          string `form:"search" binding:"max=200"`
	FromDate        string `form:"from_date" binding:"omitempty,datetime=2006-01-02"`
	ToDate          string `form:"to_date" binding:"omitempty,datetime=2006-01-02"`
	IncludeExcluded bool   `form:"include_excluded"`
}

// AssignCategoryRequest represents the request payload for a manual category.
type AssignCategoryRequest struct {
	Category    string `json:"category" binding:"required,max=100"`
	Therapeutic *bool  `json:"therapeutic"`
}

// CategorizeRequest represents the request payload for a categorization run.
type CategorizeRequest struct {
	Year   int  `json:"year" binding:"omitempty,min=1900,max=2999"`
	All    bool `json:"all"`
	DryRun bool `json:"dry_run"`
}

// ListTransactions handles listing transactions
// @Summary     List transactions
// @Description Paginated transactions, filtered by year, category, search text and dates
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       year             query int    false "Fiscal year"
// @Param       category         query string false "Category id"
// @Param       uncategorized    query bool   false "Only uncategorized"
// @Param       private          query bool   false "Only private expenses"
// @Param       search           query string false "Counterparty or description text"
// @Param       from_date        query string false "Booked on or after (YYYY-MM-DD)"
// @Param       to_date          query string false "Booked on or before (YYYY-MM-DD)"
// @Param       include_excluded query bool   false "Include excluded rows"
// @Param       page             query int    false "Page number"
// @Param       page_size        query int    false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var q ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := services.TransactionFilter{
		Year:            q.Year,
		Uncategorized:   q.Uncategorized,
		Private:         q.Private,
		Search:          q.Search,
		IncludeExcluded: q.IncludeExcluded,
	}
	if q.Category != "" {
		filter.Category = &q.Category
	}
	if q.FromDate != "" {
		from, _ := parseDate(q.FromDate)
		filter.FromDate = &from
	}
	if q.ToDate != "" {
		to, _ := parseDate(q.ToDate)
		filter.ToDate = &to
	}

	result, err := h.transactionService.ListTransactions(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles retrieving a single transaction
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction id, URL-encoded (2025%2F002-0014)"
// @Success     200 {object} map[string]interface{} "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	tx, err := h.transactionService.GetTransaction(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// AssignCategory handles a manual category override
// @Summary     Assign a category
// @Description Set a category by hand. The rule link is cleared and later runs keep the choice.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Transaction id"
// @Param       request body AssignCategoryRequest true "Category"
// @Success     200 {object} map[string]interface{} "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Router      /transactions/{id}/category [put]
func (h *TransactionHandler) AssignCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssignCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	tx, err := h.transactionService.AssignCategory(c.Param("id"), req.Category, req.Therapeutic)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditAssignCategory, "transaction", tx.ID, c.ClientIP(),
		map[string]interface{}{"category": req.Category, "therapeutic": tx.IsTherapeutic})

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// ClearCategory handles removing a category
// @Summary     Clear a category
// @Description Make the transaction uncategorized again so rules can pick it up
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction id"
// @Success     200 {object} map[string]interface{} "Updated transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/category [delete]
func (h *TransactionHandler) ClearCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.ClearCategory(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditClearCategory, "transaction", tx.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// Categorize handles a rule-based categorization run
// @Summary     Categorize transactions
// @Description Apply the rules to uncategorized transactions, or to all with all=true
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CategorizeRequest false "Run options"
// @Success     200 {object} map[string]interface{} "Run result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Invalid rules"
// @Router      /categorize [post]
func (h *TransactionHandler) Categorize(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategorizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}

	result, err := h.categorizationService.Categorize(c.Request.Context(), req.Year, req.All, req.DryRun)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !req.DryRun {
		h.auditService.Log(actor, services.AuditCategorize, "transaction", "", c.ClientIP(),
			map[string]interface{}{"year": req.Year, "all": req.All, "changes": len(result.Changes)})
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "dry_run": req.DryRun})
}
