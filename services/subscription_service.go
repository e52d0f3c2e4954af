package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/repository"
)

// SubscriptionService authorizes real-time topic subscriptions: the id of
// a chat topic is either a channel of a server the profile belongs to or a
// conversation the profile takes part in.
//
// The hub asks it when a client subscribes and again when a revocation
// re-checks held topics. Anything else, unknown ids included, is
// pkg.ErrForbidden.
type SubscriptionService struct {
	channelRepo      repository.ChannelRepository
	memberRepo       repository.MemberRepository
	conversationRepo repository.ConversationRepository
}

func NewSubscriptionService(
	channelRepo repository.ChannelRepository,
	memberRepo repository.MemberRepository,
	conversationRepo repository.ConversationRepository,
) *SubscriptionService {
	return &SubscriptionService{
		channelRepo:      channelRepo,
		memberRepo:       memberRepo,
		conversationRepo: conversationRepo,
	}
}

// AuthorizeTopic returns nil when profileID may read the topics of id.
func (s *SubscriptionService) AuthorizeTopic(ctx context.Context, profileID, id string) error {
	channel, err := s.channelRepo.GetByID(ctx, id)
	switch {
	case err == nil:
		ok, err := s.memberRepo.IsMember(ctx, channel.ServerID, profileID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: not a member of this server", pkg.ErrForbidden)
		}
		return nil
	case !errors.Is(err, pkg.ErrNotFound):
		return err
	}

	ok, err := s.conversationRepo.IsParticipant(ctx, id, profileID)
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: unknown topic", pkg.ErrForbidden)
	}
	return nil
}
