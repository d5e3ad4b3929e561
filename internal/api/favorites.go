package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/pkg/discovery"
)

type FavoriteHandler struct {
	discovery *discovery.Service
	logger    logging.Logger
}

func NewFavoriteHandler(service *discovery.Service, logger logging.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		discovery: service,
		logger:    logger,
	}
}

// List handles GET /favorites - nearest first when lat/lng are given
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	favorites, err := h.discovery.Favorites(c.Request.Context(), userID, parseOrigin(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get favorites")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favorites": favorites,
		"total":     len(favorites),
	})
}

// Add handles POST /favorites/:activityId
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	if err := h.discovery.AddFavorite(c.Request.Context(), userID, c.Param("activityId")); err != nil {
		respondError(c, h.logger, err, "Failed to add favorite")
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove handles DELETE /favorites/:activityId
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	if err := h.discovery.RemoveFavorite(c.Request.Context(), userID, c.Param("activityId")); err != nil {
		respondError(c, h.logger, err, "Failed to remove favorite")
		return
	}

	c.Status(http.StatusNoContent)
}
