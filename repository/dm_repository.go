package repository

import (
	"context"

	"github.com/rossosss/zvonok/models"
)

// ConversationRepository stores member pairs.
type ConversationRepository interface {
	// Find returns the conversation stored with exactly this member order.
	Find(ctx context.Context, memberOneID, memberTwoID string) (*models.Conversation, error)

	// Create fills ID and timestamps. A concurrent insert of the same pair
	// yields pkg.ErrAlreadyExists.
	Create(ctx context.Context, conversation *models.Conversation) error

	GetByID(ctx context.Context, id string) (*models.Conversation, error)

	// IsParticipant reports whether profileID owns one of the two members.
	IsParticipant(ctx context.Context, conversationID, profileID string) (bool, error)
}

// DirectMessageRepository stores conversation messages. Semantics mirror
// MessageRepository with the conversation in place of the channel.
type DirectMessageRepository interface {
	Create(ctx context.Context, message *models.DirectMessage) error
	GetByID(ctx context.Context, id string) (*models.DirectMessage, error)
	ListByConversation(ctx context.Context, conversationID, cursor string, limit int) ([]models.DirectMessage, error)
	UpdateContent(ctx context.Context, id, content string) error
	SoftDelete(ctx context.Context, id string) error
}
