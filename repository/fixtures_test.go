package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
)

type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *sqlx.DB

	profiles      ProfileRepository
	servers       ServerRepository
	members       MemberRepository
	channels      ChannelRepository
	messages      MessageRepository
	conversations ConversationRepository
	dms           DirectMessageRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fixture{
		t:             t,
		ctx:           context.Background(),
		db:            db.Conn,
		profiles:      NewSQLProfileRepo(db.Conn),
		servers:       NewSQLServerRepo(db.Conn),
		members:       NewSQLMemberRepo(db.Conn),
		channels:      NewSQLChannelRepo(db.Conn),
		messages:      NewSQLMessageRepo(db.Conn),
		conversations: NewSQLConversationRepo(db.Conn),
		dms:           NewSQLDirectMessageRepo(db.Conn),
	}
}

func (f *fixture) profile(name string) *models.Profile {
	f.t.Helper()

	p := &models.Profile{UserID: "user-" + name, Name: name, Email: name + "@example.com"}
	require.NoError(f.t, f.profiles.Upsert(f.ctx, p))
	return p
}

func (f *fixture) server(owner *models.Profile) *models.Server {
	f.t.Helper()

	s := &models.Server{Name: owner.Name + "'s server", InviteCode: uuid.NewString(), ProfileID: owner.ID}
	require.NoError(f.t, f.servers.Create(f.ctx, s))
	return s
}

func (f *fixture) member(server *models.Server, p *models.Profile, role models.MemberRole) *models.Member {
	f.t.Helper()

	m := &models.Member{Role: role, ProfileID: p.ID, ServerID: server.ID}
	require.NoError(f.t, f.members.Create(f.ctx, m))
	return m
}

func (f *fixture) channel(server *models.Server, name string) *models.Channel {
	f.t.Helper()

	c := &models.Channel{Name: name, Type: models.ChannelTypeText, ProfileID: server.ProfileID, ServerID: server.ID}
	require.NoError(f.t, f.channels.Create(f.ctx, c))
	return c
}
