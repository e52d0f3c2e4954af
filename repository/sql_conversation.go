package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

type sqlConversationRepo struct {
	db database.TxQuerier
}

func NewSQLConversationRepo(db database.TxQuerier) ConversationRepository {
	return &sqlConversationRepo{db: db}
}

const conversationColumns = `id, member_one_id, member_two_id, created_at, updated_at`

func (r *sqlConversationRepo) Find(ctx context.Context, memberOneID, memberTwoID string) (*models.Conversation, error) {
	return r.getOne(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE member_one_id = ? AND member_two_id = ?`,
		memberOneID, memberTwoID,
	)
}

func (r *sqlConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	return r.getOne(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
}

func (r *sqlConversationRepo) getOne(ctx context.Context, query string, args ...any) (*models.Conversation, error) {
	var c models.Conversation
	err := get(ctx, r.db, &c, query, args...)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &c, nil
}

func (r *sqlConversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	conversation.ID = newID()
	conversation.CreatedAt = now()
	conversation.UpdatedAt = conversation.CreatedAt

	query := `
		INSERT INTO conversations (id, member_one_id, member_two_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		conversation.ID, conversation.MemberOneID, conversation.MemberTwoID,
		conversation.CreatedAt, conversation.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: conversation", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *sqlConversationRepo) IsParticipant(ctx context.Context, conversationID, profileID string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM conversations c
		JOIN members m ON m.id = c.member_one_id OR m.id = c.member_two_id
		WHERE c.id = ? AND m.profile_id = ?`

	var count int
	if err := get(ctx, r.db, &count, query, conversationID, profileID); err != nil {
		return false, fmt.Errorf("failed to check conversation participant: %w", err)
	}
	return count > 0, nil
}

// isUniqueViolation matches both drivers' messages
// ("UNIQUE constraint failed" / "duplicate key value violates unique constraint").
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
