package repository

import (
	"context"

	"github.com/rossosss/zvonok/models"
)

// ChannelRepository stores channels.
type ChannelRepository interface {
	// Create fills ID and timestamps of channel.
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)

	// GetInServer returns the channel only if it belongs to serverID.
	GetInServer(ctx context.Context, serverID, id string) (*models.Channel, error)

	// GetDefault returns the server's "general" channel.
	GetDefault(ctx context.Context, serverID string) (*models.Channel, error)

	// ListByServer returns channels in creation order.
	ListByServer(ctx context.Context, serverID string) ([]models.Channel, error)

	// Update writes name and type.
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id string) error
}
