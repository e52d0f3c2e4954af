package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

type sqlChannelRepo struct {
	db database.TxQuerier
}

func NewSQLChannelRepo(db database.TxQuerier) ChannelRepository {
	return &sqlChannelRepo{db: db}
}

const channelColumns = `id, name, type, profile_id, server_id, created_at, updated_at`

func (r *sqlChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	channel.ID = newID()
	channel.CreatedAt = now()
	channel.UpdatedAt = channel.CreatedAt

	query := `
		INSERT INTO channels (id, name, type, profile_id, server_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		channel.ID, channel.Name, channel.Type, channel.ProfileID, channel.ServerID,
		channel.CreatedAt, channel.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

func (r *sqlChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	return r.getOne(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)
}

func (r *sqlChannelRepo) GetInServer(ctx context.Context, serverID, id string) (*models.Channel, error) {
	return r.getOne(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = ? AND server_id = ?`,
		id, serverID,
	)
}

func (r *sqlChannelRepo) GetDefault(ctx context.Context, serverID string) (*models.Channel, error) {
	return r.getOne(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE server_id = ? AND name = ? ORDER BY created_at ASC LIMIT 1`,
		serverID, models.DefaultChannelName,
	)
}

func (r *sqlChannelRepo) getOne(ctx context.Context, query string, args ...any) (*models.Channel, error) {
	var c models.Channel
	err := get(ctx, r.db, &c, query, args...)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &c, nil
}

func (r *sqlChannelRepo) ListByServer(ctx context.Context, serverID string) ([]models.Channel, error) {
	channels := []models.Channel{}
	if err := selectAll(ctx, r.db, &channels,
		`SELECT `+channelColumns+` FROM channels WHERE server_id = ? ORDER BY created_at ASC`,
		serverID,
	); err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

func (r *sqlChannelRepo) Update(ctx context.Context, channel *models.Channel) error {
	channel.UpdatedAt = now()

	err := execAffecting(ctx, r.db,
		`UPDATE channels SET name = ?, type = ?, updated_at = ? WHERE id = ?`,
		channel.Name, channel.Type, channel.UpdatedAt, channel.ID,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	return err
}

func (r *sqlChannelRepo) Delete(ctx context.Context, id string) error {
	err := execAffecting(ctx, r.db, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return err
}
