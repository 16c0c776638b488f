package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/pkg/response"
)

// RequireUserType returns a middleware that allows only the given user types.
func RequireUserType(types ...models.UserType) gin.HandlerFunc {
	allowed := make(map[models.UserType]struct{})
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(c *gin.Context) {
		userType, ok := UserType(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		if _, ok := allowed[userType]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
