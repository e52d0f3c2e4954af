package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/repository"
	"github.com/rossosss/zvonok/ws"
)

// ServerService covers the server lifecycle. Server-scoped methods take
// the caller's membership, resolved by the membership middleware.
type ServerService interface {
	// Create inserts the server, its general channel and the creator's
	// ADMIN membership in one transaction.
	Create(ctx context.Context, profile *models.Profile, req *models.CreateServerRequest) (*models.CreateServerResult, error)

	// Get returns the server with channels and members.
	Get(ctx context.Context, caller *models.Member) (*models.ServerWithMembers, error)

	ListByProfile(ctx context.Context, profileID string) ([]models.ServerWithRole, error)

	// Update renames the server; an empty ImageURL keeps the image. Owner only.
	Update(ctx context.Context, caller *models.Member, req *models.UpdateServerRequest) (*models.Server, error)

	// CheckUpdate runs the validation and owner check of Update without
	// writing anything. Handlers call it before storing an uploaded image
	// so rejected requests leave nothing on disk.
	CheckUpdate(ctx context.Context, caller *models.Member, req *models.UpdateServerRequest) error

	// RegenerateInviteCode replaces the invite code. Owner only.
	RegenerateInviteCode(ctx context.Context, caller *models.Member) (*models.Server, error)

	// Leave removes the profile's membership and returns its remaining
	// servers. The owner cannot leave. Live subscriptions the membership
	// granted are revoked.
	Leave(ctx context.Context, profileID, serverID string) ([]models.ServerWithRole, error)

	// Delete removes the server with everything in it. Owner only. Every
	// former member loses the subscriptions the server granted.
	Delete(ctx context.Context, caller *models.Member) error

	// Setup returns the first server the profile joined.
	Setup(ctx context.Context, profileID string) (*models.Server, error)
}

type serverService struct {
	db          *sqlx.DB
	serverRepo  repository.ServerRepository
	channelRepo repository.ChannelRepository
	memberRepo  repository.MemberRepository
	hub         ws.SubscriptionRevoker
}

// NewServerService needs the pool itself for the creation transaction.
func NewServerService(
	db *sqlx.DB,
	serverRepo repository.ServerRepository,
	channelRepo repository.ChannelRepository,
	memberRepo repository.MemberRepository,
	hub ws.SubscriptionRevoker,
) ServerService {
	return &serverService{
		db:          db,
		serverRepo:  serverRepo,
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
		hub:         hub,
	}
}

func (s *serverService) Create(ctx context.Context, profile *models.Profile, req *models.CreateServerRequest) (*models.CreateServerResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	result := &models.CreateServerResult{
		Server: &models.Server{
			Name:       req.Name,
			ImageURL:   req.ImageURL,
			InviteCode: uuid.NewString(),
			ProfileID:  profile.ID,
		},
	}

	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := repository.NewSQLServerRepo(tx).Create(ctx, result.Server); err != nil {
			return err
		}

		result.DefaultChannel = &models.Channel{
			Name:      models.DefaultChannelName,
			Type:      models.ChannelTypeText,
			ProfileID: profile.ID,
			ServerID:  result.Server.ID,
		}
		if err := repository.NewSQLChannelRepo(tx).Create(ctx, result.DefaultChannel); err != nil {
			return err
		}

		result.Member = &models.Member{
			Role:      models.RoleAdmin,
			ProfileID: profile.ID,
			ServerID:  result.Server.ID,
		}
		return repository.NewSQLMemberRepo(tx).Create(ctx, result.Member)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	log.Printf("[server] created %s (%q) by profile %s", result.Server.ID, result.Server.Name, profile.ID)
	return result, nil
}

func (s *serverService) Get(ctx context.Context, caller *models.Member) (*models.ServerWithMembers, error) {
	return loadServerDetail(ctx, s.serverRepo, s.channelRepo, s.memberRepo, caller.ServerID)
}

func (s *serverService) ListByProfile(ctx context.Context, profileID string) ([]models.ServerWithRole, error) {
	servers, err := s.serverRepo.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	if servers == nil {
		servers = []models.ServerWithRole{}
	}
	return servers, nil
}

func (s *serverService) Update(ctx context.Context, caller *models.Member, req *models.UpdateServerRequest) (*models.Server, error) {
	server, err := s.updatableServer(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	server.Name = req.Name
	if req.ImageURL != "" {
		server.ImageURL = req.ImageURL
	}
	if err := s.serverRepo.Update(ctx, server); err != nil {
		return nil, fmt.Errorf("failed to update server: %w", err)
	}

	return s.serverRepo.GetByID(ctx, server.ID)
}

func (s *serverService) CheckUpdate(ctx context.Context, caller *models.Member, req *models.UpdateServerRequest) error {
	_, err := s.updatableServer(ctx, caller, req)
	return err
}

func (s *serverService) updatableServer(ctx context.Context, caller *models.Member, req *models.UpdateServerRequest) (*models.Server, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return s.ownedServer(ctx, caller)
}

func (s *serverService) RegenerateInviteCode(ctx context.Context, caller *models.Member) (*models.Server, error) {
	server, err := s.ownedServer(ctx, caller)
	if err != nil {
		return nil, err
	}

	if err := s.serverRepo.UpdateInviteCode(ctx, server.ID, uuid.NewString()); err != nil {
		return nil, fmt.Errorf("failed to regenerate invite code: %w", err)
	}
	return s.serverRepo.GetByID(ctx, server.ID)
}

func (s *serverService) Leave(ctx context.Context, profileID, serverID string) ([]models.ServerWithRole, error) {
	if serverID == "" {
		return nil, fmt.Errorf("%w: server id missing", pkg.ErrBadRequest)
	}

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: not a member", pkg.ErrBadRequest)
		}
		return nil, err
	}

	member, err := s.memberRepo.GetByServerAndProfile(ctx, serverID, profileID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: not a member", pkg.ErrBadRequest)
		}
		return nil, err
	}

	if server.IsOwner(profileID) {
		return nil, fmt.Errorf("%w: owner cannot leave", pkg.ErrBadRequest)
	}

	if err := s.memberRepo.Delete(ctx, member.ID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("failed to leave server: %w", err)
	}
	s.hub.RevokeProfile(profileID)

	return s.ListByProfile(ctx, profileID)
}

func (s *serverService) Delete(ctx context.Context, caller *models.Member) error {
	server, err := s.ownedServer(ctx, caller)
	if err != nil {
		return err
	}

	members, err := s.memberRepo.ListByServer(ctx, server.ID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}

	if err := s.serverRepo.Delete(ctx, server.ID); err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	for _, m := range members {
		s.hub.RevokeProfile(m.ProfileID)
	}

	log.Printf("[server] deleted %s by profile %s", server.ID, caller.ProfileID)
	return nil
}

func (s *serverService) Setup(ctx context.Context, profileID string) (*models.Server, error) {
	server, err := s.serverRepo.FirstByProfile(ctx, profileID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: no server yet", pkg.ErrNotFound)
	}
	return server, err
}

// ownedServer loads the caller's server and requires the caller to own it.
func (s *serverService) ownedServer(ctx context.Context, caller *models.Member) (*models.Server, error) {
	server, err := s.serverRepo.GetByID(ctx, caller.ServerID)
	if err != nil {
		return nil, err
	}
	if !server.IsOwner(caller.ProfileID) {
		return nil, fmt.Errorf("%w: only the server owner can do this", pkg.ErrForbidden)
	}
	return server, nil
}

// loadServerDetail is the server view returned after channel and member
// changes: the server with its channels and members.
func loadServerDetail(
	ctx context.Context,
	serverRepo repository.ServerRepository,
	channelRepo repository.ChannelRepository,
	memberRepo repository.MemberRepository,
	serverID string,
) (*models.ServerWithMembers, error) {
	server, err := serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}

	channels, err := channelRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	members, err := memberRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	if members == nil {
		members = []models.Member{}
	}

	return &models.ServerWithMembers{
		Server:   *server,
		Channels: channels,
		Members:  members,
	}, nil
}

// requireModerator allows ADMIN and MODERATOR.
func requireModerator(caller *models.Member) error {
	if !caller.Role.CanModerate() {
		return fmt.Errorf("%w: insufficient permissions", pkg.ErrForbidden)
	}
	return nil
}
