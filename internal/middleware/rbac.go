package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
	"github.com/noah-isme/tutorconnect-api/pkg/response"
)

// RequireKinds admits only callers authenticated as one of the given kinds.
func RequireKinds(kinds ...models.UserKind) gin.HandlerFunc {
	allowed := make(map[models.UserKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Kind]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "access denied for role "+string(claims.Kind)))
			c.Abort()
			return
		}
		c.Next()
	}
}
