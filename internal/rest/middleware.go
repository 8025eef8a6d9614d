package rest

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// rateLimiter is the subset of the cache limiter the middleware needs.
type rateLimiter interface {
	Allow(ctx context.Context, identifier string, limit, windowSeconds int) bool
}

// RateLimit bounds each client IP to limit requests per fixed window.
// Store failures fail open inside the limiter itself.
func RateLimit(limiter rateLimiter, limit, windowSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := "ip:" + c.ClientIP()
		if !limiter.Allow(c.Request.Context(), id, limit, windowSeconds) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests from this IP, please try again later.",
			})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request, matching the platform's access
// log format.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Printf("%s %s - %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
		c.Next()
	}
}

// ErrorBody shapes an error response. Stack traces are only exposed
// outside production; handlers pass detail as the optional second value.
func ErrorBody(production bool, message, detail string) gin.H {
	body := gin.H{"message": message}
	if !production && detail != "" {
		body["stack"] = detail
	}
	return gin.H{"error": body}
}
