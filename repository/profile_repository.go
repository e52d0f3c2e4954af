package repository

import (
	"context"

	"github.com/rossosss/zvonok/models"
)

// ProfileRepository stores profiles keyed by the identity provider's user id.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)

	// Upsert inserts the profile or, when user_id already exists, refreshes
	// name, image and email. ID and timestamps are filled from the stored row.
	Upsert(ctx context.Context, profile *models.Profile) error
}
