package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/session"
	"github.com/eventboard/backend/internal/validation"
	"github.com/eventboard/backend/pkg/response"
)

// Handler handles signup, login and logout.
type Handler struct {
	service  *Service
	sessions *session.Manager
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(service *Service, sessions *session.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, sessions: sessions, logger: logger}
}

// Signup handles POST /signup and logs the new user in.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := validation.Decode(c, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	user, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.sessions.Establish(c, user); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("user_type", string(user.UserType)))
	response.Created(c, gin.H{"user": user.ToPublic()})
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := validation.Decode(c, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	user, err := h.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.sessions.Establish(c, user); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"user": user.ToPublic()})
}

// Logout handles POST /logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Destroy(c); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, nil)
}
