package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boekhouden/internal/services"
)

// CategoryHandler exposes the read-only category list.
type CategoryHandler struct {
	categoryService services.CategoryServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// ListCategories handles listing categories
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.categoryService.ListCategories()})
}

// GetCategory handles retrieving a category
// @Summary     Get a category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category id"
// @Success     200 {object} map[string]interface{} "Category"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categoryService.GetCategory(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}
