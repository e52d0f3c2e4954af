package services

import (
	"context"
	"fmt"
	"log"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/repository"
	"github.com/rossosss/zvonok/ws"
)

// ChannelService manages the channels of the caller's server. Changes
// require ADMIN or MODERATOR and return the refreshed server view.
type ChannelService interface {
	Create(ctx context.Context, caller *models.Member, req *models.CreateChannelRequest) (*models.ServerWithMembers, error)
	Get(ctx context.Context, caller *models.Member, channelID string) (*models.Channel, error)

	// Default returns the server's general channel.
	Default(ctx context.Context, caller *models.Member) (*models.Channel, error)

	// Update renames or retypes a channel. The general channel is fixed.
	Update(ctx context.Context, caller *models.Member, channelID string, req *models.UpdateChannelRequest) (*models.ServerWithMembers, error)

	// Delete removes a channel and its messages and closes its topics. The
	// general channel stays.
	Delete(ctx context.Context, caller *models.Member, channelID string) (*models.ServerWithMembers, error)
}

type channelService struct {
	serverRepo  repository.ServerRepository
	channelRepo repository.ChannelRepository
	memberRepo  repository.MemberRepository
	hub         ws.SubscriptionRevoker
}

func NewChannelService(
	serverRepo repository.ServerRepository,
	channelRepo repository.ChannelRepository,
	memberRepo repository.MemberRepository,
	hub ws.SubscriptionRevoker,
) ChannelService {
	return &channelService{
		serverRepo:  serverRepo,
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
		hub:         hub,
	}
}

func (s *channelService) Create(ctx context.Context, caller *models.Member, req *models.CreateChannelRequest) (*models.ServerWithMembers, error) {
	if err := requireModerator(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	channel := &models.Channel{
		Name:      req.Name,
		Type:      req.Type,
		ProfileID: caller.ProfileID,
		ServerID:  caller.ServerID,
	}
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	log.Printf("[channel] created %s (%s %q) in server %s", channel.ID, channel.Type, channel.Name, channel.ServerID)
	return s.detail(ctx, caller)
}

func (s *channelService) Get(ctx context.Context, caller *models.Member, channelID string) (*models.Channel, error) {
	return s.channelInServer(ctx, caller, channelID)
}

func (s *channelService) Default(ctx context.Context, caller *models.Member) (*models.Channel, error) {
	return s.channelRepo.GetDefault(ctx, caller.ServerID)
}

func (s *channelService) Update(ctx context.Context, caller *models.Member, channelID string, req *models.UpdateChannelRequest) (*models.ServerWithMembers, error) {
	if err := requireModerator(caller); err != nil {
		return nil, err
	}

	channel, err := s.channelInServer(ctx, caller, channelID)
	if err != nil {
		return nil, err
	}
	if channel.IsDefault() {
		return nil, fmt.Errorf("%w: the general channel cannot be edited", pkg.ErrBadRequest)
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	channel.Name = req.Name
	channel.Type = req.Type
	if err := s.channelRepo.Update(ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}

	return s.detail(ctx, caller)
}

func (s *channelService) Delete(ctx context.Context, caller *models.Member, channelID string) (*models.ServerWithMembers, error) {
	if err := requireModerator(caller); err != nil {
		return nil, err
	}

	channel, err := s.channelInServer(ctx, caller, channelID)
	if err != nil {
		return nil, err
	}
	if channel.IsDefault() {
		return nil, fmt.Errorf("%w: the general channel cannot be deleted", pkg.ErrBadRequest)
	}

	if err := s.channelRepo.Delete(ctx, channel.ID); err != nil {
		return nil, fmt.Errorf("failed to delete channel: %w", err)
	}
	s.hub.CloseTopics(ws.MessagesTopic(channel.ID), ws.MessagesUpdateTopic(channel.ID))

	log.Printf("[channel] deleted %s from server %s", channel.ID, channel.ServerID)
	return s.detail(ctx, caller)
}

func (s *channelService) channelInServer(ctx context.Context, caller *models.Member, channelID string) (*models.Channel, error) {
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel id missing", pkg.ErrBadRequest)
	}
	return s.channelRepo.GetInServer(ctx, caller.ServerID, channelID)
}

func (s *channelService) detail(ctx context.Context, caller *models.Member) (*models.ServerWithMembers, error) {
	return loadServerDetail(ctx, s.serverRepo, s.channelRepo, s.memberRepo, caller.ServerID)
}
