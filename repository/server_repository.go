package repository

import (
	"context"

	"github.com/rossosss/zvonok/models"
)

// ServerRepository stores servers. Membership lives in MemberRepository.
type ServerRepository interface {
	// Create fills ID and timestamps of server.
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, id string) (*models.Server, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Server, error)

	// ListByProfile returns the servers profileID belongs to, newest first,
	// with the profile's role in each.
	ListByProfile(ctx context.Context, profileID string) ([]models.ServerWithRole, error)

	// FirstByProfile returns the oldest membership's server.
	FirstByProfile(ctx context.Context, profileID string) (*models.Server, error)

	// Update writes name and image_url.
	Update(ctx context.Context, server *models.Server) error
	UpdateInviteCode(ctx context.Context, id, code string) error
	Delete(ctx context.Context, id string) error

	Preview(ctx context.Context, code string) (*models.InvitePreview, error)
}
