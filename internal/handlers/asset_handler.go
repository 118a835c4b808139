package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/services"
)

// AssetHandler handles the depreciation register.
type AssetHandler struct {
	assetService services.AssetServicer
	auditService services.AuditServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer, auditService services.AuditServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService, auditService: auditService}
}

// CreateAssetRequest represents the request payload for a new asset.
// PurchaseAmount is a decimal string such as "1499.99".
type CreateAssetRequest struct {
	Name              string `json:"name" binding:"required,max=200"`
	PurchaseDate      string `json:"purchase_date" binding:"required,datetime=2006-01-02"`
	PurchaseAmount    string `json:"purchase_amount" binding:"required"`
	DepreciationYears int    `json:"depreciation_years" binding:"required,min=1,max=10"`
	Notes             string `json:"notes" binding:"max=500"`
}

// DisposeAssetRequest carries the disposal date.
type DisposeAssetRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// ListAssetsQuery selects the reference year of the derived values.
type ListAssetsQuery struct {
	Year int `form:"year" binding:"omitempty,min=1900,max=2999"`
}

// ListAssets handles listing the register
// @Summary     List assets
// @Description Every asset with its status, annual depreciation and book value at the end of the year
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Reference year, defaults to the current year"
// @Success     200 {object} map[string]interface{} "Assets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	var q ListAssetsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	if q.Year == 0 {
		q.Year = time.Now().Year()
	}

	views, err := h.assetService.ListAssets(q.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": views, "year": q.Year})
}

// GetAsset handles retrieving an asset
// @Summary     Get an asset
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Asset id"
// @Success     200 {object} map[string]interface{} "Asset"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	asset, err := h.assetService.GetAsset(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// CreateAsset handles registering an asset
// @Summary     Add an asset
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAssetRequest true "Asset"
// @Success     201 {object} map[string]interface{} "Asset"
// @Failure     400 {object} ErrorResponse "Invalid asset"
// @Failure     409 {object} ErrorResponse "Duplicate asset"
// @Router      /assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	amount, err := decimal.NewFromString(req.PurchaseAmount)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid purchase_amount"))
		return
	}
	purchased, _ := parseDate(req.PurchaseDate)

	asset, err := h.assetService.AddAsset(services.AssetInput{
		Name:              req.Name,
		PurchaseDate:      purchased,
		PurchaseAmount:    amount,
		DepreciationYears: req.DepreciationYears,
		Notes:             req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditAssetAdd, "asset", asset.ID, c.ClientIP(),
		map[string]interface{}{"name": asset.Name, "amount": asset.PurchaseAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// DisposeAsset handles recording a sale or write-off
// @Summary     Dispose an asset
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Asset id"
// @Param       request body DisposeAssetRequest true "Disposal date"
// @Success     200 {object} map[string]interface{} "Asset"
// @Failure     400 {object} ErrorResponse "Invalid asset"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id}/dispose [post]
func (h *AssetHandler) DisposeAsset(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DisposeAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, _ := parseDate(req.Date)

	asset, err := h.assetService.DisposeAsset(c.Param("id"), date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditAssetDispose, "asset", asset.ID, c.ClientIP(),
		map[string]interface{}{"date": req.Date})

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// ImportAssets handles importing the register from a workbook
// @Summary     Import assets
// @Description Read depreciation rows from the result sheet of a bookkeeping workbook
// @Tags        assets
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file  formData file   true  "Workbook (.xlsx)"
// @Param       sheet formData string false "Sheet name, defaults to Resultaat"
// @Param       year  formData int    false "Fiscal year of the workbook"
// @Success     200 {object} map[string]interface{} "Imported and skipped assets"
// @Failure     400 {object} ErrorResponse "Import failed"
// @Router      /assets/import [post]
func (h *AssetHandler) ImportAssets(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var form struct {
		Sheet string `form:"sheet" binding:"max=100"`
		Year  int    `form:"year" binding:"omitempty,min=1900,max=2999"`
	}
	if err := c.ShouldBind(&form); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer f.Close()

	result, err := h.assetService.ImportFromExcel(f, form.Sheet, form.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, services.AuditAssetImport, "asset", "", c.ClientIP(),
		map[string]interface{}{"file": fh.Filename, "imported": len(result.Imported), "skipped": result.Skipped})

	c.JSON(http.StatusOK, gin.H{"result": result})
}
