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

type sqlMessageRepo struct {
	db database.TxQuerier
}

func NewSQLMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqlMessageRepo{db: db}
}

type messageRow struct {
	models.Message
	authorRow
}

const messageSelect = `
	SELECT m.id, m.content, m.file_url, m.member_id, m.channel_id, m.deleted,
	       m.created_at, m.updated_at, ` + authorColumns + `
	FROM messages m
	JOIN members mem ON mem.id = m.member_id
	JOIN profiles p ON p.id = mem.profile_id`

func (r *sqlMessageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = newOrderedID()
	message.CreatedAt = now()
	message.UpdatedAt = message.CreatedAt

	query := `
		INSERT INTO messages (id, content, file_url, member_id, channel_id, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		message.ID, message.Content, message.FileURL, message.MemberID, message.ChannelID,
		false, message.CreatedAt, message.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *sqlMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var row messageRow
	err := get(ctx, r.db, &row, messageSelect+` WHERE m.id = ?`, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return row.toModel(), nil
}

// ListByChannel pages with the key (created_at DESC, id DESC). The cursor row
// is the lookahead of the previous page, so the page starts at it.
func (r *sqlMessageRepo) ListByChannel(ctx context.Context, channelID, cursor string, limit int) ([]models.Message, error) {
	var rows []messageRow
	var err error

	if cursor == "" {
		err = selectAll(ctx, r.db, &rows, messageSelect+`
			WHERE m.channel_id = ? AND m.deleted = FALSE
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?`,
			channelID, limit,
		)
	} else {
		var cursorAt time.Time
		err = get(ctx, r.db, &cursorAt,
			`SELECT created_at FROM messages WHERE id = ? AND channel_id = ?`,
			cursor, channelID,
		)
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve message cursor: %w", err)
		}

		err = selectAll(ctx, r.db, &rows, messageSelect+`
			WHERE m.channel_id = ? AND m.deleted = FALSE
			  AND (m.created_at < ? OR (m.created_at = ? AND m.id <= ?))
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?`,
			channelID, cursorAt.UTC(), cursorAt.UTC(), cursor, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]models.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, *rows[i].toModel())
	}
	return messages, nil
}

func (r *sqlMessageRepo) UpdateContent(ctx context.Context, id, content string) error {
	err := execAffecting(ctx, r.db,
		`UPDATE messages SET content = ?, updated_at = ? WHERE id = ? AND deleted = FALSE`,
		content, now(), id,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return err
}

func (r *sqlMessageRepo) SoftDelete(ctx context.Context, id string) error {
	err := execAffecting(ctx, r.db,
		`UPDATE messages SET content = ?, file_url = NULL, deleted = TRUE, updated_at = ? WHERE id = ?`,
		models.DeletedMessageContent, now(), id,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return err
}

func (row *messageRow) toModel() *models.Message {
	msg := row.Message
	msg.Member = row.authorRow.member(msg.MemberID)
	return &msg
}
