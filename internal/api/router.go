package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/auth"
	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/internal/metrics"
	"github.com/bcnelson/playfinder/pkg/discovery"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health() error
}

// Dependencies are the services the router dispatches to. Metrics and
// AccessLog are optional.
type Dependencies struct {
	Discovery  *discovery.Service
	Auth       *auth.AuthService
	Categories CategoryStore
	Health     HealthChecker
	Metrics    *metrics.Collector
	Logger     logging.Logger
	Version    string
	AccessLog  bool
}

func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Noop()
	}

	router := gin.New()

	if deps.AccessLog {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(corsMiddleware())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if deps.Health != nil {
			if err := deps.Health.Health(); err != nil {
				logger.Error(c.Request.Context(), "health check failed", logging.Err(err))
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "playfinder-api",
			"version":   deps.Version,
		})
	})

	authHandler := NewAuthHandler(deps.Auth, logger)
	activityHandler := NewActivityHandler(deps.Discovery, logger)
	categoryHandler := NewCategoryHandler(deps.Categories, logger)
	favoriteHandler := NewFavoriteHandler(deps.Discovery, logger)
	scheduleHandler := NewScheduleHandler(deps.Discovery, logger)
	adminHandler := NewAdminHandler(deps.Discovery, deps.Categories, logger)

	v1 := router.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		v1.GET("/venues", activityHandler.ListVenues)
		v1.GET("/events", activityHandler.ListEvents)
		v1.GET("/activities", activityHandler.ListActivities)
		v1.GET("/activities/:id", activityHandler.GetActivity)
		v1.GET("/activities/:id/explain", activityHandler.ExplainActivity)
		v1.GET("/categories", categoryHandler.List)

		protected := v1.Group("/")
		protected.Use(authHandler.AuthMiddleware())
		{
			protected.GET("/users/me", authHandler.Me)

			favorites := protected.Group("/favorites")
			{
				favorites.GET("", favoriteHandler.List)
				favorites.POST("/:activityId", favoriteHandler.Add)
				favorites.DELETE("/:activityId", favoriteHandler.Remove)
			}

			schedule := protected.Group("/schedule")
			{
				schedule.GET("", scheduleHandler.List)
				schedule.GET("/calendar.ics", scheduleHandler.Calendar)
				schedule.POST("", scheduleHandler.Create)
				schedule.DELETE("/:visitId", scheduleHandler.Cancel)
			}

			admin := protected.Group("/admin")
			admin.Use(authHandler.AdminMiddleware())
			{
				admin.POST("/activities", adminHandler.CreateActivity)
				admin.PUT("/activities/:id", adminHandler.UpdateActivity)
				admin.DELETE("/activities/:id", adminHandler.DeleteActivity)
				admin.POST("/categories", categoryHandler.Create)
				admin.DELETE("/categories/:id", categoryHandler.Delete)
				admin.GET("/reports/categories", adminHandler.CategoryReport)
				admin.POST("/reindex", adminHandler.Reindex)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Endpoint not found",
			Details: c.Request.URL.Path,
		})
	})

	return router
}
