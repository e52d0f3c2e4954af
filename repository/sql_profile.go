package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

type sqlProfileRepo struct {
	db database.TxQuerier
}

func NewSQLProfileRepo(db database.TxQuerier) ProfileRepository {
	return &sqlProfileRepo{db: db}
}

const profileColumns = `id, user_id, name, image_url, email, created_at, updated_at`

func (r *sqlProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := get(ctx, r.db, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *sqlProfileRepo) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := get(ctx, r.db, &p, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by user id: %w", err)
	}
	return &p, nil
}

func (r *sqlProfileRepo) Upsert(ctx context.Context, profile *models.Profile) error {
	ts := now()

	query := `
		INSERT INTO profiles (id, user_id, name, image_url, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			image_url = excluded.image_url,
			email = excluded.email,
			updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		newID(), profile.UserID, profile.Name, profile.ImageURL, profile.Email, ts, ts,
	); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	stored, err := r.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return err
	}

	*profile = *stored
	return nil
}
