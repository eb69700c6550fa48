package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UmangSinghal0504/lms/internal/metrics"
)

// The identity proxy in front of this service resolves the session and
// injects the subject and role as headers. Webhook routes bypass this
// entirely; their gate is the signature.
const (
	userIDHeader   = "X-User-Id"
	userRoleHeader = "X-User-Role"

	userIDKey = "userID"
)

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func RequireEducator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(userRoleHeader) != "educator" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Unauthorized Access",
			})
			return
		}
		c.Next()
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
