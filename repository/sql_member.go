package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

type sqlMemberRepo struct {
	db database.TxQuerier
}

func NewSQLMemberRepo(db database.TxQuerier) MemberRepository {
	return &sqlMemberRepo{db: db}
}

const memberColumns = `id, role, profile_id, server_id, created_at, updated_at`

// memberRow is a member joined with its profile.
type memberRow struct {
	ID string `db:"id"`
	authorRow
}

const memberWithProfileQuery = `
	SELECT mem.id AS id, ` + authorColumns + `
	FROM members mem
	JOIN profiles p ON p.id = mem.profile_id`

func (r *sqlMemberRepo) Create(ctx context.Context, member *models.Member) error {
	member.ID = newID()
	member.CreatedAt = now()
	member.UpdatedAt = member.CreatedAt

	query := `
		INSERT INTO members (id, role, profile_id, server_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		member.ID, member.Role, member.ProfileID, member.ServerID, member.CreatedAt, member.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (r *sqlMemberRepo) CreateIfAbsent(ctx context.Context, member *models.Member) (bool, error) {
	member.ID = newID()
	member.CreatedAt = now()
	member.UpdatedAt = member.CreatedAt

	query := `
		INSERT INTO members (id, role, profile_id, server_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile_id, server_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		member.ID, member.Role, member.ProfileID, member.ServerID, member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create member: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *sqlMemberRepo) GetByID(ctx context.Context, id string) (*models.Member, error) {
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
}

func (r *sqlMemberRepo) GetByServerAndProfile(ctx context.Context, serverID, profileID string) (*models.Member, error) {
	return r.getOne(ctx,
		`SELECT `+memberColumns+` FROM members WHERE server_id = ? AND profile_id = ?`,
		serverID, profileID,
	)
}

func (r *sqlMemberRepo) getOne(ctx context.Context, query string, args ...any) (*models.Member, error) {
	var m models.Member
	err := get(ctx, r.db, &m, query, args...)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

func (r *sqlMemberRepo) GetWithProfile(ctx context.Context, id string) (*models.Member, error) {
	var row memberRow
	err := get(ctx, r.db, &row, memberWithProfileQuery+` WHERE mem.id = ?`, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member with profile: %w", err)
	}
	return row.member(row.ID), nil
}

func (r *sqlMemberRepo) IsMember(ctx context.Context, serverID, profileID string) (bool, error) {
	var count int
	if err := get(ctx, r.db, &count,
		`SELECT COUNT(*) FROM members WHERE server_id = ? AND profile_id = ?`,
		serverID, profileID,
	); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (r *sqlMemberRepo) ListByServer(ctx context.Context, serverID string) ([]models.Member, error) {
	query := memberWithProfileQuery + `
		WHERE mem.server_id = ?
		ORDER BY CASE mem.role
			WHEN 'ADMIN' THEN 1
			WHEN 'MODERATOR' THEN 2
			ELSE 3
		END, mem.created_at ASC`

	var rows []memberRow
	if err := selectAll(ctx, r.db, &rows, query, serverID); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]models.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, *row.member(row.ID))
	}
	return members, nil
}

func (r *sqlMemberRepo) UpdateRole(ctx context.Context, id string, role models.MemberRole) error {
	err := execAffecting(ctx, r.db,
		`UPDATE members SET role = ?, updated_at = ? WHERE id = ?`,
		role, now(), id,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	return err
}

func (r *sqlMemberRepo) Delete(ctx context.Context, id string) error {
	err := execAffecting(ctx, r.db, `DELETE FROM members WHERE id = ?`, id)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return err
}

func (r *sqlMemberRepo) DeleteByServerAndProfile(ctx context.Context, serverID, profileID string) error {
	err := execAffecting(ctx, r.db,
		`DELETE FROM members WHERE server_id = ? AND profile_id = ?`,
		serverID, profileID,
	)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return err
}
