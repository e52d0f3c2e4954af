package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

type sqlDirectMessageRepo struct {
	db database.TxQuerier
}

func NewSQLDirectMessageRepo(db database.TxQuerier) DirectMessageRepository {
	return &sqlDirectMessageRepo{db: db}
}

type directMessageRow struct {
	models.DirectMessage
	authorRow
}

const directMessageSelect = `
	SELECT d.id, d.content, d.file_url, d.member_id, d.conversation_id, d.deleted,
	       d.created_at, d.updated_at, ` + authorColumns + `
	FROM direct_messages d
	JOIN members mem ON mem.id = d.member_id
	JOIN profiles p ON p.id = mem.profile_id`

func (r *sqlDirectMessageRepo) Create(ctx context.Context, message *models.DirectMessage) error {
	message.ID = newOrderedID()
	message.CreatedAt = now()
	message.UpdatedAt = message.CreatedAt

	query := `
		INSERT INTO direct_messages (id, content, file_url, member_id, conversation_id, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		message.ID, message.Content, message.FileURL, message.MemberID, message.ConversationID,
		false, message.CreatedAt, message.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create direct message: %w", err)
	}
	return nil
}

func (r *sqlDirectMessageRepo) GetByID(ctx context.Context, id string) (*models.DirectMessage, error) {
	var row directMessageRow
	err := get(ctx, r.db, &row, directMessageSelect+` WHERE d.id = ?`, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get direct message: %w", err)
	}
	return row.toModel(), nil
}

func (r *sqlDirectMessageRepo) ListByConversation(ctx context.Context, conversationID, cursor string, limit int) ([]models.DirectMessage, error) {
	var rows []directMessageRow
	var err error

	if cursor == "" {
		err = selectAll(ctx, r.db, &rows, directMessageSelect+`
			WHERE d.conversation_id = ? AND d.deleted = FALSE
			ORDER BY d.created_at DESC, d.id DESC
			LIMIT ?`,
			conversationID, limit,
		)
	} else {
		var cursorAt time.Time
		err = get(ctx, r.db, &cursorAt,
			`SELECT created_at FROM direct_messages WHERE id = ? AND conversation_id = ?`,
			cursor, conversationID,
		)
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve direct message cursor: %w", err)
		}

		err = selectAll(ctx, r.db, &rows, directMessageSelect+`
			WHERE d.conversation_id = ? AND d.deleted = FALSE
			  AND (d.created_at < ? OR (d.created_at = ? AND d.id <= ?))
			ORDER BY d.created_at DESC, d.id DESC
			LIMIT ?`,
			conversationID, cursorAt.UTC(), cursorAt.UTC(), cursor, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list direct messages: %w", err)
	}

	messages := make([]models.DirectMessage, 0, len(rows))
	for i := range rows {
		messages = append(messages, *rows[i].toModel())
	}
	return messages, nil
}

func (r *sqlDirectMessageRepo) UpdateContent(ctx context.Context, id, content string) error {
	err := execAffecting(ctx, r.db,
		`UPDATE direct_messages SET content = ?, updated_at = ? WHERE id = ? AND deleted = FALSE`,
		content, now(), id,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to update direct message: %w", err)
	}
	return err
}

func (r *sqlDirectMessageRepo) SoftDelete(ctx context.Context, id string) error {
	err := execAffecting(ctx, r.db,
		`UPDATE direct_messages SET content = ?, file_url = NULL, deleted = TRUE, updated_at = ? WHERE id = ?`,
		models.DeletedMessageContent, now(), id,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to delete direct message: %w", err)
	}
	return err
}

func (row *directMessageRow) toModel() *models.DirectMessage {
	msg := row.DirectMessage
	msg.Member = row.authorRow.member(msg.MemberID)
	return &msg
}
