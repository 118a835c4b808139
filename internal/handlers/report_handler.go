package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"boekhouden/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the yearly P&L.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetReport handles the P&L as JSON
// @Summary     Get the P&L
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       year path int true "Fiscal year"
// @Success     200 {object} map[string]interface{} "Report with totals"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Router      /reports/{year} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	year, err := parseYearParam(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	r, err := h.reportService.Generate(c.Request.Context(), year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": r,
		"totals": gin.H{
			"income":       r.TotalIncome(),
			"expenses":     r.TotalExpenses(),
			"depreciation": r.TotalDepreciation(),
			"profit_loss":  r.ProfitLoss(),
			"disallowed":   r.TotalDisallowed(),
		},
		"has_warnings": r.HasWarnings(),
	})
}

// GetExcel handles the workbook download
// @Summary     Download the P&L workbook
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       year path int true "Fiscal year"
// @Success     200 {file} file "Workbook"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Router      /reports/{year}/excel [get]
func (h *ReportHandler) GetExcel(c *gin.Context) {
	year, err := parseYearParam(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.WriteExcel(c.Request.Context(), year, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="resultaat-%d.xlsx"`, year))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetPDF handles the PDF download
// @Summary     Download the P&L as PDF
// @Tags        reports
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       year path int true "Fiscal year"
// @Success     200 {file} file "PDF report"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Router      /reports/{year}/pdf [get]
func (h *ReportHandler) GetPDF(c *gin.Context) {
	year, err := parseYearParam(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.WritePDF(c.Request.Context(), year, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="resultaat-%d.pdf"`, year))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
