package events

import (
	"context"
	"fmt"
	"time"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/store"
)

// Repository handles event persistence.
type Repository struct {
	docs store.Collection[models.Event]
}

// NewRepository creates an events repository.
func NewRepository(docs store.Collection[models.Event]) *Repository {
	return &Repository{docs: docs}
}

// List returns the events matching filter, shaped by opts.
func (r *Repository) List(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*models.Event, error) {
	list, err := r.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

// GetByID returns an event by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	e, err := r.docs.FindOne(ctx, store.ByID(id))
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

// Create stores a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	created, err := r.docs.Insert(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return created, nil
}

// Replace overwrites the event with id and returns how many were replaced.
func (r *Repository) Replace(ctx context.Context, id string, e *models.Event) (int64, error) {
	n, err := r.docs.Update(ctx, store.ByID(id), e)
	if err != nil {
		return 0, fmt.Errorf("update event %s: %w", id, err)
	}
	return n, nil
}

// ListForOrganization returns the organization's events dated after since,
// earliest first.
func (r *Repository) ListForOrganization(ctx context.Context, orgID string, since time.Time) ([]*models.Event, error) {
	filter := store.Filter{
		store.Eq("orgId", orgID),
		store.Gt(models.EventDateField, since.UTC()),
	}
	opts := store.FindOptions{Sort: &store.Sort{Field: models.EventDateField}}
	list, err := r.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list events for org %s: %w", orgID, err)
	}
	return list, nil
}
