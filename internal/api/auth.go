package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/auth"
	"github.com/bcnelson/playfinder/internal/logging"
)

const (
	userIDKey  = "user_id"
	isAdminKey = "is_admin"
)

type AuthHandler struct {
	authService *auth.AuthService
	logger      logging.Logger
}

func NewAuthHandler(authService *auth.AuthService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "Authentication failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me handles GET /users/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), &auth.TokenClaims{UserID: userID})
	if err != nil {
		respondError(c, h.logger, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// AuthMiddleware validates bearer tokens and stores the caller in the context.
func (h *AuthHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Authorization header required",
			})
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Invalid authorization header format",
			})
			return
		}

		claims, err := h.authService.ValidateToken(tokenParts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Invalid or expired token",
			})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(isAdminKey, claims.IsAdmin)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func (h *AuthHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(isAdminKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error: "Administrator access required",
			})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(userIDKey)
	return id, id != ""
}
