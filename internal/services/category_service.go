package services

import (
	"boekhouden/internal/config"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
)

// categoryService exposes the categories from categories.yaml. They are
// read-only at runtime.
type categoryService struct {
	registry *config.Registry
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(registry *config.Registry) CategoryServicer {
	return &categoryService{registry: registry}
}

// ListCategories returns the categories in file order.
func (s *categoryService) ListCategories() []models.Category {
	out := make([]models.Category, len(s.registry.Categories))
	copy(out, s.registry.Categories)
	return out
}

// GetCategory retrieves a category by id.
func (s *categoryService) GetCategory(id string) (*models.Category, error) {
	c, ok := s.registry.Category(id)
	if !ok {
		return nil, apperrors.ErrCategoryNotFound
	}
	return &c, nil
}
