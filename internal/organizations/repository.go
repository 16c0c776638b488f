package organizations

import (
	"context"
	"fmt"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/store"
)

// Repository handles organization persistence.
type Repository struct {
	docs store.Collection[models.Organization]
}

// NewRepository creates an organizations repository.
func NewRepository(docs store.Collection[models.Organization]) *Repository {
	return &Repository{docs: docs}
}

// List returns the organizations matching filter, shaped by opts.
func (r *Repository) List(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*models.Organization, error) {
	list, err := r.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return list, nil
}

// GetByID returns an organization by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	org, err := r.docs.FindOne(ctx, store.ByID(id))
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}
	return org, nil
}

// GetBySlug returns the first organization whose stored name equals the slug form
// of slug. Slugs are not unique.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	slug = models.Slugify(slug)
	org, err := r.docs.FindOne(ctx, store.Filter{store.Eq("name", slug)})
	if err != nil {
		return nil, fmt.Errorf("get organization by slug %q: %w", slug, err)
	}
	return org, nil
}

// Create stores org with its name replaced by the slug form.
func (r *Repository) Create(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	org.Name = models.Slugify(org.Name)
	created, err := r.docs.Insert(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return created, nil
}

// Replace overwrites the organization with id, slugging the name, and returns how
// many were replaced.
func (r *Repository) Replace(ctx context.Context, id string, org *models.Organization) (int64, error) {
	org.Name = models.Slugify(org.Name)
	n, err := r.docs.Update(ctx, store.ByID(id), org)
	if err != nil {
		return 0, fmt.Errorf("update organization %s: %w", id, err)
	}
	return n, nil
}
