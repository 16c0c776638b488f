package reservations

import (
	"context"
	"fmt"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/store"
)

// Repository handles reservation persistence.
type Repository struct {
	docs store.Collection[models.Reservation]
}

// NewRepository creates a reservations repository.
func NewRepository(docs store.Collection[models.Reservation]) *Repository {
	return &Repository{docs: docs}
}

// List returns the reservations matching filter, shaped by opts.
func (r *Repository) List(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*models.Reservation, error) {
	list, err := r.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}

// GetByID returns a reservation by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	res, err := r.docs.FindOne(ctx, store.ByID(id))
	if err != nil {
		return nil, fmt.Errorf("get reservation %s: %w", id, err)
	}
	return res, nil
}

// Create stores a new reservation.
func (r *Repository) Create(ctx context.Context, res *models.Reservation) (*models.Reservation, error) {
	created, err := r.docs.Insert(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	return created, nil
}

// Replace overwrites the reservation with id and returns how many were replaced.
func (r *Repository) Replace(ctx context.Context, id string, res *models.Reservation) (int64, error) {
	n, err := r.docs.Update(ctx, store.ByID(id), res)
	if err != nil {
		return 0, fmt.Errorf("update reservation %s: %w", id, err)
	}
	return n, nil
}
