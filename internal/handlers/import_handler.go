package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/pagination"
	"boekhouden/internal/services"
)

// maxStatementSize bounds uploaded statements.
const maxStatementSize = 20 << 20

// ImportHandler handles bank statement uploads.
type ImportHandler struct {
	importService services.ImportServicer
	auditService  services.AuditServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer, auditService services.AuditServicer) *ImportHandler {
	return &ImportHandler{importService: importService, auditService: auditService}
}

// ImportForm holds the multipart fields next to the file.
type ImportForm struct {
	Force      bool `form:"force"`
	FiscalYear int  `form:"fiscal_year" binding:"omitempty,min=1900,max=2999"`
}

// ImportStatement handles a Belfius CSV upload
// @Summary     Import a bank statement
// @Description Import a Belfius CSV export. Known transactions are skipped unless force is set.
// @Tags        imports
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file        formData file true  "Belfius CSV"
// @Param       force       formData bool false "Re-import known transactions"
// @Param       fiscal_year formData int  false "Only import rows of this year"
// @Success     201 {object} map[string]interface{} "Import session"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /imports [post]
func (h *ImportHandler) ImportStatement(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var form ImportForm
	if err := c.ShouldBind(&form); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	if fh.Size > maxStatementSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is too large"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer f.Close()

	session, err := h.importService.ImportCSV(c.Request.Context(), fh.Filename, f, services.ImportOptions{
		FiscalYear: form.FiscalYear,
		Force:      form.Force,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditImport, "import_session", session.ID, c.ClientIP(),
		map[string]interface{}{
			"file":     fh.Filename,
			"imported": session.TransactionsImported,
			"skipped":  session.TransactionsSkipped,
			"errors":   len(session.Errors),
		})

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// ListImports handles listing earlier imports
// @Summary     List import sessions
// @Tags        imports
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated sessions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /imports [get]
func (h *ImportHandler) ListImports(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.importService.ListSessions(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
