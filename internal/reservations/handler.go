package reservations

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/listing"
	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/validation"
	"github.com/eventboard/backend/pkg/apperrors"
	"github.com/eventboard/backend/pkg/response"
)

// Handler handles reservation HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a reservations handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /reservations (session required). Responds with the number of
// matching reservations.
func (h *Handler) List(c *gin.Context) {
	params, err := listing.Parse(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	// Reservations carry no date attribute, so start/end do not apply.
	filter, opts := params.Query("")
	list, err := h.repo.List(c.Request.Context(), filter, opts)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"reservations": len(list)})
}

// Get handles GET /reservations/:id.
func (h *Handler) Get(c *gin.Context) {
	res, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"reservation": res})
}

// Create handles POST /reservations.
func (h *Handler) Create(c *gin.Context) {
	res, err := decodeReservation(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	created, err := h.repo.Create(c.Request.Context(), res)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, gin.H{"reservation": created})
}

// Update handles PUT /reservations/:id (session required).
func (h *Handler) Update(c *gin.Context) {
	res, err := decodeReservation(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	n, err := h.repo.Replace(c.Request.Context(), c.Param("id"), res)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"numReplaced": n})
}

// Delete handles DELETE /reservations/:id. Deleting reservations is not supported.
func (h *Handler) Delete(c *gin.Context) {
	response.Error(c, h.logger, fmt.Errorf("delete is %w", apperrors.ErrUnimplemented))
}

func decodeReservation(c *gin.Context) (*models.Reservation, error) {
	var res models.Reservation
	if err := validation.Decode(c, &res); err != nil {
		return nil, err
	}
	if err := validation.NoClientID(res.ID); err != nil {
		return nil, err
	}
	return &res, nil
}
