package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/session"
	"github.com/eventboard/backend/pkg/response"
)

const (
	// ContextUserID is the key for the session user id in gin context.
	ContextUserID = "user_id"
	// ContextUserType is the key for the session user type in gin context.
	ContextUserType = "user_type"
	// ContextSessionID is the key for the session id in gin context.
	ContextSessionID = "session_id"
)

// Session resolves the request's session, if any, and binds its user to the context.
// Anonymous requests pass through unchanged. A failing session store aborts the
// request with 500, since whether the caller is signed in cannot be known.
func Session(manager *session.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := manager.Resolve(c)
		if err != nil {
			if session.IsAnonymous(err) {
				c.Next()
				return
			}
			response.Error(c, logger, fmt.Errorf("resolve session: %w", err))
			c.Abort()
			return
		}
		c.Set(ContextSessionID, s.ID)
		c.Set(ContextUserID, s.UserID)
		c.Set(ContextUserType, s.UserType)
		c.Next()
	}
}

// RequireAuth rejects requests without a session user with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID returns the session user id bound to c.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}

// UserType returns the session user type bound to c.
func UserType(c *gin.Context) (models.UserType, bool) {
	v, ok := c.Get(ContextUserType)
	if !ok {
		return "", false
	}
	t, ok := v.(models.UserType)
	return t, ok
}
