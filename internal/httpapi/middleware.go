package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/crosspost/internal/ratelimit"
	"github.com/orgball2608/crosspost/pkg/logger"
)

const (
	userHeader = "X-User-ID"
	userKey    = "userID"
)

// RequireUser takes the caller's identity from the X-User-ID header set by the gateway.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userHeader))
		if userID == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing "+userHeader+" header")
			return
		}
		c.Set(userKey, userID)
		c.Next()
	}
}

func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.GetString(userKey)) {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		c.Next()
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if userID := c.GetString(userKey); userID != "" {
			args = append(args, "user_id", userID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("HTTP request failed", args...)
			return
		}
		log.Debug("HTTP request", args...)
	}
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}
