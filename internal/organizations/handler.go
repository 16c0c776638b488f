package organizations

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/listing"
	"github.com/eventboard/backend/internal/middleware"
	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/validation"
	"github.com/eventboard/backend/pkg/apperrors"
	"github.com/eventboard/backend/pkg/response"
)

// UserFinder loads a user record by id.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo   *Repository
	users  UserFinder
	logger *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(repo *Repository, users UserFinder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, users: users, logger: logger}
}

// List handles GET /orgs.
//
//	?mine=1     the session admin's own organization
//	?slug=<s>   the organization with that slug
//	otherwise   the number of organizations matching the list query
func (h *Handler) List(c *gin.Context) {
	if c.Query("mine") != "" {
		h.mine(c)
		return
	}
	if slug := c.Query("slug"); slug != "" {
		org, err := h.repo.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		response.OK(c, gin.H{"org": org})
		return
	}

	params, err := listing.Parse(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	// Organizations carry no date attribute, so start/end do not apply.
	filter, opts := params.Query("")
	list, err := h.repo.List(c.Request.Context(), filter, opts)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"orgs": len(list)})
}

func (h *Handler) mine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, h.logger, apperrors.ErrUnauthorized)
		return
	}
	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if user.UserType != models.UserTypeAdmin || user.OrgID == "" {
		response.Error(c, h.logger, apperrors.ErrForbidden)
		return
	}
	org, err := h.repo.GetByID(ctx, user.OrgID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "success org", gin.H{"org": org})
}

// Get handles GET /orgs/:id.
func (h *Handler) Get(c *gin.Context) {
	org, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"org": org})
}

// Create handles POST /orgs. The stored name is the slug of the submitted one.
func (h *Handler) Create(c *gin.Context) {
	org, err := decodeOrganization(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	created, err := h.repo.Create(c.Request.Context(), org)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, gin.H{"org": created})
}

// Update handles PUT /orgs/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	org, err := decodeOrganization(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	n, err := h.repo.Replace(c.Request.Context(), c.Param("id"), org)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"numReplaced": n})
}

// Delete handles DELETE /orgs/:id. Deleting organizations is not supported.
func (h *Handler) Delete(c *gin.Context) {
	response.Error(c, h.logger, fmt.Errorf("delete is %w", apperrors.ErrUnimplemented))
}

func decodeOrganization(c *gin.Context) (*models.Organization, error) {
	var org models.Organization
	if err := validation.Decode(c, &org); err != nil {
		return nil, err
	}
	if err := validation.NoClientID(org.ID); err != nil {
		return nil, err
	}
	return &org, nil
}
