package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

type sqlServerRepo struct {
	db database.TxQuerier
}

func NewSQLServerRepo(db database.TxQuerier) ServerRepository {
	return &sqlServerRepo{db: db}
}

const serverColumns = `s.id, s.name, s.image_url, s.invite_code, s.profile_id, s.created_at, s.updated_at`

func (r *sqlServerRepo) Create(ctx context.Context, server *models.Server) error {
	server.ID = newID()
	server.CreatedAt = now()
	server.UpdatedAt = server.CreatedAt

	query := `
		INSERT INTO servers (id, name, image_url, invite_code, profile_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		server.ID, server.Name, server.ImageURL, server.InviteCode, server.ProfileID,
		server.CreatedAt, server.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return nil
}

func (r *sqlServerRepo) GetByID(ctx context.Context, id string) (*models.Server, error) {
	return r.getOne(ctx, `SELECT `+serverColumns+` FROM servers s WHERE s.id = ?`, id)
}

func (r *sqlServerRepo) GetByInviteCode(ctx context.Context, code string) (*models.Server, error) {
	return r.getOne(ctx, `SELECT `+serverColumns+` FROM servers s WHERE s.invite_code = ?`, code)
}

func (r *sqlServerRepo) FirstByProfile(ctx context.Context, profileID string) (*models.Server, error) {
	query := `
		SELECT ` + serverColumns + `
		FROM servers s
		JOIN members m ON m.server_id = s.id
		WHERE m.profile_id = ?
		ORDER BY m.created_at ASC
		LIMIT 1`
	return r.getOne(ctx, query, profileID)
}

func (r *sqlServerRepo) getOne(ctx context.Context, query string, args ...any) (*models.Server, error) {
	var s models.Server
	err := get(ctx, r.db, &s, query, args...)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return &s, nil
}

func (r *sqlServerRepo) ListByProfile(ctx context.Context, profileID string) ([]models.ServerWithRole, error) {
	query := `
		SELECT ` + serverColumns + `, m.role
		FROM servers s
		JOIN members m ON m.server_id = s.id
		WHERE m.profile_id = ?
		ORDER BY s.created_at DESC`

	servers := []models.ServerWithRole{}
	if err := selectAll(ctx, r.db, &servers, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

func (r *sqlServerRepo) Update(ctx context.Context, server *models.Server) error {
	server.UpdatedAt = now()

	err := execAffecting(ctx, r.db,
		`UPDATE servers SET name = ?, image_url = ?, updated_at = ? WHERE id = ?`,
		server.Name, server.ImageURL, server.UpdatedAt, server.ID,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to update server: %w", err)
	}
	return err
}

func (r *sqlServerRepo) UpdateInviteCode(ctx context.Context, id, code string) error {
	err := execAffecting(ctx, r.db,
		`UPDATE servers SET invite_code = ?, updated_at = ? WHERE id = ?`,
		code, now(), id,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to update invite code: %w", err)
	}
	return err
}

func (r *sqlServerRepo) Delete(ctx context.Context, id string) error {
	err := execAffecting(ctx, r.db, `DELETE FROM servers WHERE id = ?`, id)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to delete server: %w", err)
	}
	return err
}

func (r *sqlServerRepo) Preview(ctx context.Context, code string) (*models.InvitePreview, error) {
	query := `
		SELECT s.id, s.name, s.image_url,
		       (SELECT COUNT(*) FROM members m WHERE m.server_id = s.id) AS member_count
		FROM servers s
		WHERE s.invite_code = ?`

	var p models.InvitePreview
	err := get(ctx, r.db, &p, query, code)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite preview: %w", err)
	}
	return &p, nil
}
