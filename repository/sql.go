// Package repository is the data access layer. Every repository is an
// interface (the *_repository.go files) with one sqlx implementation
// (the sql_*.go files) that runs on both SQLite and Postgres.
//
// Implementations take a database.TxQuerier, so the same constructor serves
// the pool and a transaction:
//
//	repo := repository.NewSQLServerRepo(db.Conn) // pool
//	repo := repository.NewSQLServerRepo(tx)      // inside database.WithTx
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

// now is the timestamp written on insert and update. Postgres keeps
// microseconds, so SQLite gets the same precision and both compare alike.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// newID returns a random UUID.
func newID() string {
	return uuid.NewString()
}

// newOrderedID returns a UUIDv7, whose textual order follows creation time.
func newOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func get(ctx context.Context, q database.TxQuerier, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return pkg.ErrNotFound
	}
	return err
}

func selectAll(ctx context.Context, q database.TxQuerier, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

// execAffecting runs a write and reports pkg.ErrNotFound when no row matched.
func execAffecting(ctx context.Context, q database.TxQuerier, query string, args ...any) error {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

// authorColumns selects the author of a message (member + profile). The
// query must alias members as "mem" and profiles as "p".
const authorColumns = `
	mem.role       AS member_role,
	mem.profile_id AS member_profile_id,
	mem.server_id  AS member_server_id,
	mem.created_at AS member_created_at,
	mem.updated_at AS member_updated_at,
	p.user_id      AS profile_user_id,
	p.name         AS profile_name,
	p.image_url    AS profile_image_url,
	p.email        AS profile_email,
	p.created_at   AS profile_created_at,
	p.updated_at   AS profile_updated_at`

// authorRow receives authorColumns.
type authorRow struct {
	MemberRole       models.MemberRole `db:"member_role"`
	MemberProfileID  string            `db:"member_profile_id"`
	MemberServerID   string            `db:"member_server_id"`
	MemberCreatedAt  time.Time         `db:"member_created_at"`
	MemberUpdatedAt  time.Time         `db:"member_updated_at"`
	ProfileUserID    string            `db:"profile_user_id"`
	ProfileName      string            `db:"profile_name"`
	ProfileImageURL  string            `db:"profile_image_url"`
	ProfileEmail     string            `db:"profile_email"`
	ProfileCreatedAt time.Time         `db:"profile_created_at"`
	ProfileUpdatedAt time.Time         `db:"profile_updated_at"`
}

func (a authorRow) member(memberID string) *models.Member {
	return &models.Member{
		ID:        memberID,
		Role:      a.MemberRole,
		ProfileID: a.MemberProfileID,
		ServerID:  a.MemberServerID,
		CreatedAt: a.MemberCreatedAt,
		UpdatedAt: a.MemberUpdatedAt,
		Profile: &models.Profile{
			ID:        a.MemberProfileID,
			UserID:    a.ProfileUserID,
			Name:      a.ProfileName,
			ImageURL:  a.ProfileImageURL,
			Email:     a.ProfileEmail,
			CreatedAt: a.ProfileCreatedAt,
			UpdatedAt: a.ProfileUpdatedAt,
		},
	}
}
