package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/store"
	"github.com/eventboard/backend/pkg/apperrors"
)

// Repository handles user persistence.
type Repository struct {
	docs store.Collection[models.User]
}

// NewRepository creates a users repository.
func NewRepository(docs store.Collection[models.User]) *Repository {
	return &Repository{docs: docs}
}

// GetByID returns a user by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := r.docs.FindOne(ctx, store.ByID(id))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// GetByUsername returns a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := r.docs.FindOne(ctx, store.Filter{store.Eq(models.UsernameField, username)})
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// Create stores a new user. A username already taken, including one claimed by a
// concurrent insert, yields apperrors.ErrUsernameTaken.
func (r *Repository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	created, err := r.docs.Insert(ctx, u)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperrors.ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}
