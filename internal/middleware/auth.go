package middleware

import (
	"context"
	"log"
	"strings"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	callerContextKey = "caller"
	userIDContextKey = "user_id"
)

// SessionResolver turns a bearer token into the calling user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (models.Caller, error)
}

// AuthMiddleware rejects requests without a valid bearer token before any
// handler runs. On success the caller and its user_id are stored in the
// context.
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperr.New(apperr.Unauthenticated, "Authorization header is required"))
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortWithError(c, apperr.New(apperr.Unauthenticated, "Authorization header must be in the format 'Bearer {token}'"))
			return
		}

		caller, err := sessions.Resolve(c.Request.Context(), tokenParts[1])
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(callerContextKey, caller)
		c.Set(userIDContextKey, caller.UserID)
		c.Next()
	}
}

// CallerFromContext returns the caller set by AuthMiddleware.
func CallerFromContext(c *gin.Context) (models.Caller, bool) {
	value, ok := c.Get(callerContextKey)
	if !ok {
		return models.Caller{}, false
	}
	caller, ok := value.(models.Caller)
	return caller, ok && caller.UserID > 0
}

func abortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind != apperr.Unauthenticated {
		log.Printf("request_id=%s error=%v", RequestIDFromContext(c), err)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{"error": apperr.PublicMessage(err)})
}
