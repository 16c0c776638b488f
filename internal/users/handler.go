package users

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/middleware"
	"github.com/eventboard/backend/pkg/apperrors"
	"github.com/eventboard/backend/pkg/response"
)

// Handler handles user HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Me handles GET /users/me: the session user without the password hash.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, h.logger, apperrors.ErrUnauthorized)
		return
	}
	u, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"user": u.ToPublic()})
}
