package handlers

import (
	"log"

	"taskmanager/internal/apperr"
	"taskmanager/internal/middleware"

	"github.com/gin-gonic/gin"
)

// respondError writes {"error": msg} with the status for err's kind. Causes
// of store and internal failures are logged, never returned.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Store || kind == apperr.Internal {
		log.Printf(
			"request_id=%s method=%s path=%s error=%v",
			middleware.RequestIDFromContext(c),
			c.Request.Method,
			c.FullPath(),
			err,
		)
	}
	c.JSON(apperr.HTTPStatus(kind), gin.H{"error": apperr.PublicMessage(err)})
}
