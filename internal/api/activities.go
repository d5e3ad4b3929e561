package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/pkg/discovery"
	"github.com/bcnelson/playfinder/pkg/models"
)

type ActivityHandler struct {
	discovery *discovery.Service
	logger    logging.Logger
}

func NewActivityHandler(service *discovery.Service, logger logging.Logger) *ActivityHandler {
	return &ActivityHandler{
		discovery: service,
		logger:    logger,
	}
}

// ListVenues handles GET /venues
func (h *ActivityHandler) ListVenues(c *gin.Context) {
	h.list(c, models.KindVenue)
}

// ListEvents handles GET /events
func (h *ActivityHandler) ListEvents(c *gin.Context) {
	h.list(c, models.KindEvent)
}

// ListActivities handles GET /activities - venues and events together
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	h.list(c, "")
}

func (h *ActivityHandler) list(c *gin.Context, kind models.ActivityKind) {
	sort := c.Query("sort")
	if !discovery.ValidSort(sort) {
		badRequest(c, "Invalid sort order", nil)
		return
	}

	limit, offset := parsePage(c)
	result, err := h.discovery.Search(c.Request.Context(), discovery.SearchRequest{
		Kind:     kind,
		Criteria: parseCriteria(c),
		Origin:   parseOrigin(c),
		Text:     c.Query("q"),
		Sort:     sort,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to list activities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": result.Activities,
		"total":      result.Total,
		"limit":      limit,
		"offset":     offset,
	})
}

// GetActivity handles GET /activities/:id
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	ranked, err := h.discovery.Get(c.Request.Context(), c.Param("id"), parseOrigin(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get activity")
		return
	}

	c.JSON(http.StatusOK, ranked)
}

// ExplainActivity handles GET /activities/:id/explain - which filters would
// show or hide the activity for the given criteria
func (h *ActivityHandler) ExplainActivity(c *gin.Context) {
	explanation, err := h.discovery.Explain(c.Request.Context(), c.Param("id"), parseCriteria(c), parseOrigin(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to explain activity")
		return
	}

	c.JSON(http.StatusOK, explanation)
}
