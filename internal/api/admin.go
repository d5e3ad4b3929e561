package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/internal/reports"
	"github.com/bcnelson/playfinder/pkg/discovery"
)

type AdminHandler struct {
	discovery  *discovery.Service
	categories CategoryStore
	logger     logging.Logger
}

func NewAdminHandler(service *discovery.Service, categories CategoryStore, logger logging.Logger) *AdminHandler {
	return &AdminHandler{
		discovery:  service,
		categories: categories,
		logger:     logger,
	}
}

// CreateActivity handles POST /admin/activities
func (h *AdminHandler) CreateActivity(c *gin.Context) {
	var req discovery.ActivityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	activity, err := req.Build()
	if err != nil {
		badRequest(c, "Invalid activity data", err)
		return
	}

	if err := h.discovery.CreateActivity(c.Request.Context(), activity); err != nil {
		respondError(c, h.logger, err, "Failed to create activity")
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// UpdateActivity handles PUT /admin/activities/:id - replaces every writable field
func (h *AdminHandler) UpdateActivity(c *gin.Context) {
	var req discovery.ActivityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	current, err := h.discovery.Get(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get activity")
		return
	}

	activity := current.Activity
	if err := req.ApplyTo(&activity); err != nil {
		badRequest(c, "Invalid activity data", err)
		return
	}

	if err := h.discovery.UpdateActivity(c.Request.Context(), &activity); err != nil {
		respondError(c, h.logger, err, "Failed to update activity")
		return
	}

	c.JSON(http.StatusOK, activity)
}

// DeleteActivity handles DELETE /admin/activities/:id
func (h *AdminHandler) DeleteActivity(c *gin.Context) {
	if err := h.discovery.DeleteActivity(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete activity")
		return
	}

	c.Status(http.StatusNoContent)
}

// Reindex handles POST /admin/reindex - rebuilds the geo index from storage
func (h *AdminHandler) Reindex(c *gin.Context) {
	n, err := h.discovery.Reindex(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to rebuild geo index")
		return
	}

	h.logger.Info(c.Request.Context(), "geo index rebuilt", logging.Int("activities", n))
	c.JSON(http.StatusOK, gin.H{"indexed": n})
}

// CategoryReport handles GET /admin/reports/categories - HTML bar chart
func (h *AdminHandler) CategoryReport(c *gin.Context) {
	counts, err := h.categories.CountActivities(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to count activities")
		return
	}

	var buf bytes.Buffer
	if err := reports.RenderCategoryChart(&buf, counts); err != nil {
		respondError(c, h.logger, err, "Failed to render report")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
