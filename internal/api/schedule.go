package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/pkg/discovery"
)

type ScheduleHandler struct {
	discovery *discovery.Service
	logger    logging.Logger
	now       func() time.Time
}

type ScheduleRequest struct {
	ActivityID  string     `json:"activity_id" binding:"required"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Note        string     `json:"note"`
}

func NewScheduleHandler(service *discovery.Service, logger logging.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		discovery: service,
		logger:    logger,
		now:       time.Now,
	}
}

// List handles GET /schedule?from&to - upcoming visits, from now by default
func (h *ScheduleHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	from := h.now()
	if t := queryTime(c, "from", false); t != nil {
		from = *t
	}
	var to time.Time
	if t := queryTime(c, "to", true); t != nil {
		to = *t
	}

	visits, err := h.discovery.Upcoming(c.Request.Context(), userID, from, to)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get schedule")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visits": visits,
		"total":  len(visits),
	})
}

// Calendar handles GET /schedule/calendar.ics - upcoming visits as iCalendar
func (h *ScheduleHandler) Calendar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	now := h.now()
	from := now
	if t := queryTime(c, "from", false); t != nil {
		from = *t
	}

	visits, err := h.discovery.Upcoming(c.Request.Context(), userID, from, time.Time{})
	if err != nil {
		respondError(c, h.logger, err, "Failed to get schedule")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="playfinder.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(discovery.ScheduleCalendar(visits, now)))
}

// Create handles POST /schedule
func (h *ScheduleHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	visit, err := h.discovery.ScheduleVisit(c.Request.Context(), userID, req.ActivityID, req.ScheduledAt, req.Note)
	if err != nil {
		respondError(c, h.logger, err, "Failed to schedule visit")
		return
	}

	c.JSON(http.StatusCreated, visit)
}

// Cancel handles DELETE /schedule/:visitId
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	if err := h.discovery.CancelVisit(c.Request.Context(), userID, c.Param("visitId")); err != nil {
		respondError(c, h.logger, err, "Failed to cancel visit")
		return
	}

	c.Status(http.StatusNoContent)
}
