package events

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/listing"
	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/validation"
	"github.com/eventboard/backend/pkg/apperrors"
	"github.com/eventboard/backend/pkg/response"
)

// PublicWindow is how far back the public organization page lists events.
const PublicWindow = 30 * 24 * time.Hour

// OrgFinder resolves an organization from its slug.
type OrgFinder interface {
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	orgs   OrgFinder
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, orgs OrgFinder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, orgs: orgs, logger: logger, now: time.Now}
}

// List handles GET /events. Responds with the number of matching events.
func (h *Handler) List(c *gin.Context) {
	params, err := listing.Parse(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	filter, opts := params.Query(models.EventDateField)
	list, err := h.repo.List(c.Request.Context(), filter, opts)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"events": len(list)})
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	e, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"event": e})
}

// Create handles POST /events (admin only).
func (h *Handler) Create(c *gin.Context) {
	e, err := decodeEvent(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	created, err := h.repo.Create(c.Request.Context(), e)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, gin.H{"event": created})
}

// Update handles PUT /events/:id (admin only). The body replaces the stored event.
func (h *Handler) Update(c *gin.Context) {
	e, err := decodeEvent(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	n, err := h.repo.Replace(c.Request.Context(), c.Param("id"), e)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"numReplaced": n})
}

// Delete handles DELETE /events/:id. Deleting events is not supported.
func (h *Handler) Delete(c *gin.Context) {
	response.Error(c, h.logger, fmt.Errorf("delete is %w", apperrors.ErrUnimplemented))
}

// ListPublic handles GET /public/orgs/:slug/events: the organization's events from
// the last 30 days onwards.
func (h *Handler) ListPublic(c *gin.Context) {
	ctx := c.Request.Context()
	org, err := h.orgs.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.repo.ListForOrganization(ctx, org.ID, h.now().Add(-PublicWindow))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if list == nil {
		list = []*models.Event{}
	}
	response.OK(c, gin.H{"events": list})
}

func decodeEvent(c *gin.Context) (*models.Event, error) {
	var e models.Event
	if err := validation.Decode(c, &e); err != nil {
		return nil, err
	}
	if err := validation.NoClientID(e.ID); err != nil {
		return nil, err
	}
	return &e, nil
}
