package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"taskmanager/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware limits requests per client IP. Limiter failures let the
// request through.
func RateLimitMiddleware(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unable to determine client IP address"})
			return
		}

		result, err := limiter.Allow(c.Request.Context(), c.FullPath()+":"+ip)
		if err != nil {
			log.Printf("request_id=%s rate_limit_error=%v", RequestIDFromContext(c), err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Too many requests, please retry after %d seconds", retryAfter),
			})
			return
		}

		c.Next()
	}
}
