package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/logging"
)

const requestIDHeader = "X-Request-ID"

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Authorization, Content-Type, "+requestIDHeader)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware reuses an incoming X-Request-ID or assigns one, and
// carries it on the request context for logging.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(requestIDHeader); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, id := logging.EnsureRequestID(ctx)

		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
