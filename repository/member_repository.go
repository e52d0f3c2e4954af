package repository

import (
	"context"

	"github.com/rossosss/zvonok/models"
)

// MemberRepository stores the Profile↔Server join rows.
type MemberRepository interface {
	// Create fills ID and timestamps of member.
	Create(ctx context.Context, member *models.Member) error

	// CreateIfAbsent inserts member unless the profile already belongs to
	// the server. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, member *models.Member) (bool, error)

	GetByID(ctx context.Context, id string) (*models.Member, error)

	// GetWithProfile returns the member with Profile filled.
	GetWithProfile(ctx context.Context, id string) (*models.Member, error)

	GetByServerAndProfile(ctx context.Context, serverID, profileID string) (*models.Member, error)
	IsMember(ctx context.Context, serverID, profileID string) (bool, error)

	// ListByServer returns members with profiles ordered ADMIN, MODERATOR,
	// GUEST, then by join time.
	ListByServer(ctx context.Context, serverID string) ([]models.Member, error)

	UpdateRole(ctx context.Context, id string, role models.MemberRole) error
	Delete(ctx context.Context, id string) error
	DeleteByServerAndProfile(ctx context.Context, serverID, profileID string) error
}
