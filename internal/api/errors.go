package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/auth"
	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/discovery"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func respondError(c *gin.Context, logger logging.Logger, err error, message string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found", Details: err.Error()})
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: message, Details: err.Error()})
	case errors.Is(err, storage.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Details: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
	case errors.Is(err, auth.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Details: err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Email already registered"})
	case errors.Is(err, discovery.ErrTimeRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Details: err.Error()})
	case errors.Is(err, discovery.ErrIndexDisabled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: message, Details: err.Error()})
	default:
		logger.Error(c.Request.Context(), message, logging.Err(err), logging.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message})
	}
}

func badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
