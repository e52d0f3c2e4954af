package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/rossosss/zvonok/config"
	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/repository"
	"github.com/rossosss/zvonok/ws"
)

type published struct {
	Topic string
	Event ws.Event
}

// recordingPublisher captures hub publishes and revocations.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []published
	revoked []string
	closed  []string
}

func (p *recordingPublisher) Publish(topic string, event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Event: event})
}

func (p *recordingPublisher) RevokeProfile(profileID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, profileID)
}

func (p *recordingPublisher) CloseTopics(topics ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, topics...)
}

func (p *recordingPublisher) revocations() ([]string, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.revoked...), append([]string(nil), p.closed...)
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

// stubLimiter allows the first n calls per key.
type stubLimiter struct {
	n     int
	calls map[string]int
}

func (l *stubLimiter) Allow(key string) bool {
	if l.calls == nil {
		l.calls = map[string]int{}
	}
	l.calls[key]++
	return l.calls[key] <= l.n
}

func (l *stubLimiter) CooldownSeconds(string) int { return 15 }

type env struct {
	t   *testing.T
	ctx context.Context
	db  *sqlx.DB
	hub *recordingPublisher

	profileRepo      repository.ProfileRepository
	serverRepo       repository.ServerRepository
	memberRepo       repository.MemberRepository
	channelRepo      repository.ChannelRepository
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	dmRepo           repository.DirectMessageRepository

	servers       ServerService
	channels      ChannelService
	members       MemberService
	messages      MessageService
	conversations ConversationService
	dms           DirectMessageService
	subscriptions *SubscriptionService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{
		t:                t,
		ctx:              context.Background(),
		db:               db.Conn,
		hub:              &recordingPublisher{},
		profileRepo:      repository.NewSQLProfileRepo(db.Conn),
		serverRepo:       repository.NewSQLServerRepo(db.Conn),
		memberRepo:       repository.NewSQLMemberRepo(db.Conn),
		channelRepo:      repository.NewSQLChannelRepo(db.Conn),
		messageRepo:      repository.NewSQLMessageRepo(db.Conn),
		conversationRepo: repository.NewSQLConversationRepo(db.Conn),
		dmRepo:           repository.NewSQLDirectMessageRepo(db.Conn),
	}

	e.servers = NewServerService(db.Conn, e.serverRepo, e.channelRepo, e.memberRepo, e.hub)
	e.channels = NewChannelService(e.serverRepo, e.channelRepo, e.memberRepo, e.hub)
	e.members = NewMemberService(e.serverRepo, e.channelRepo, e.memberRepo, e.hub)
	e.messages = NewMessageService(e.messageRepo, e.channelRepo, e.hub, nil)
	e.conversations = NewConversationService(e.conversationRepo, e.memberRepo)
	e.dms = NewDirectMessageService(e.conversationRepo, e.dmRepo, e.memberRepo, e.hub, nil)
	e.subscriptions = NewSubscriptionService(e.channelRepo, e.memberRepo, e.conversationRepo)
	return e
}

func (e *env) profile(name string) *models.Profile {
	e.t.Helper()

	p := &models.Profile{UserID: "user-" + name, Name: name}
	require.NoError(e.t, e.profileRepo.Upsert(e.ctx, p))
	return p
}

// server creates a server owned by owner through ServerService.Create.
func (e *env) server(owner *models.Profile) *models.CreateServerResult {
	e.t.Helper()

	result, err := e.servers.Create(e.ctx, owner, &models.CreateServerRequest{
		Name:     owner.Name + "'s server",
		ImageURL: "/uploads/1-icon.png",
	})
	require.NoError(e.t, err)
	return result
}

// join adds p to server with role.
func (e *env) join(server *models.Server, p *models.Profile, role models.MemberRole) *models.Member {
	e.t.Helper()

	m := &models.Member{Role: role, ProfileID: p.ID, ServerID: server.ID}
	require.NoError(e.t, e.memberRepo.Create(e.ctx, m))
	return m
}

func livekitConfig() config.LiveKitConfig {
	return config.LiveKitConfig{URL: "wss://livekit.example.com", APIKey: "key", APISecret: "a-secret-that-is-long-enough-for-hmac"}
}
