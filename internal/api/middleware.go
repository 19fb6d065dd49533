package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestLogger tags every request with an id and logs method, path, status
// and duration.
func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)

		start := time.Now()
		c.Next()

		a.logger.Info("request handled",
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}

// requireAuth guards the surface with a bearer token. An empty configured
// token leaves the surface open, matching single-operator deployments.
// Both Authorization: Bearer and X-API-Key are accepted.
func (a *API) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.authToken == "" {
			c.Next()
			return
		}

		token := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
		if token == "" {
			token = c.GetHeader("X-API-Key")
		}

		if token != a.authToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "a valid API token is required, via 'Authorization: Bearer <token>' or 'X-API-Key: <token>'",
			})
			return
		}

		c.Next()
	}
}
