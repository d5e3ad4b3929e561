package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/pkg/models"
)

type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, id string) error
	CountActivities(ctx context.Context) ([]models.CategoryCount, error)
}

type CategoryHandler struct {
	categories CategoryStore
	logger     logging.Logger
}

type CategoryCreateRequest struct {
	Name      string `json:"name" binding:"required"`
	Slug      string `json:"slug"`
	Icon      string `json:"icon"`
	SortOrder int    `json:"sort_order"`
}

func NewCategoryHandler(categories CategoryStore, logger logging.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		logger:     logger,
	}
}

// List handles GET /categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

// Create handles POST /admin/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	category, err := models.NewCategory(req.Name, req.Slug)
	if err != nil {
		badRequest(c, "Invalid category data", err)
		return
	}
	category.Icon = req.Icon
	category.SortOrder = req.SortOrder

	if err := h.categories.Create(c.Request.Context(), category); err != nil {
		respondError(c, h.logger, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, category)
}

// Delete handles DELETE /admin/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete category")
		return
	}

	c.Status(http.StatusNoContent)
}
