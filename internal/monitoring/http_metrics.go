package monitoring

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var activeHTTPRequests atomic.Int64
var totalHTTPRequests atomic.Uint64
var serverErrorResponses atomic.Uint64

// RequestMetricsMiddleware tracks in-flight and total requests and counts
// 5xx responses.
func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		activeHTTPRequests.Add(1)
		totalHTTPRequests.Add(1)
		defer activeHTTPRequests.Add(-1)

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			serverErrorResponses.Add(1)
		}
	}
}

func getHTTPStats() (active int64, total uint64, serverErrors uint64) {
	return activeHTTPRequests.Load(), totalHTTPRequests.Load(), serverErrorResponses.Load()
}
