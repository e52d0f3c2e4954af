package repository

import (
	"context"

	"github.com/rossosss/zvonok/models"
)

// MessageRepository stores channel messages.
type MessageRepository interface {
	// Create fills ID (time ordered) and timestamps of message.
	Create(ctx context.Context, message *models.Message) error

	// GetByID returns the message with its author, deleted or not.
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListByChannel returns up to limit non-deleted messages with authors,
	// newest first. A non-empty cursor starts the list at that message
	// (inclusive); an unknown cursor yields pkg.ErrNotFound.
	ListByChannel(ctx context.Context, channelID, cursor string, limit int) ([]models.Message, error)

	UpdateContent(ctx context.Context, id, content string) error

	// SoftDelete replaces the content, clears the file and flags the row.
	SoftDelete(ctx context.Context, id string) error
}
