package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/repository"
	"github.com/rossosss/zvonok/ws"
)

// ConversationService opens one-to-one conversations between members of
// the same server.
type ConversationService interface {
	// GetOrCreate returns the conversation between caller and
	// otherMemberID, creating it when absent. The pair is unordered: calls
	// from either member, concurrent ones included, yield the same
	// conversation. Both members must belong to the same server;
	// otherwise, and for unknown members, it returns pkg.ErrNotFound.
	// Opening a conversation with yourself is pkg.ErrBadRequest.
	GetOrCreate(ctx context.Context, caller *models.Member, otherMemberID string) (*models.Conversation, error)
}

// DirectMessageService handles messages of a conversation. The caller is
// identified by profile; their side of the conversation is resolved from it.
//
// Semantics follow MessageService with the conversation in place of the
// channel: the same page size and cursor rules, the same topics keyed by
// the conversation id, the same author and moderator rules. A profile that
// takes no part in the conversation gets pkg.ErrNotFound, so conversation
// ids cannot be probed.
type DirectMessageService interface {
	List(ctx context.Context, profileID, conversationID, cursor string) (*models.Page[models.DirectMessage], error)
	Create(ctx context.Context, profileID, conversationID string, req *models.CreateMessageRequest) (*models.DirectMessage, error)
	Update(ctx context.Context, profileID, conversationID, messageID string, req *models.UpdateMessageRequest) (*models.DirectMessage, error)
	Delete(ctx context.Context, profileID, conversationID, messageID string) (*models.DirectMessage, error)
}

type conversationService struct {
	conversationRepo repository.ConversationRepository
	memberRepo       repository.MemberRepository
}

func NewConversationService(
	conversationRepo repository.ConversationRepository,
	memberRepo repository.MemberRepository,
) ConversationService {
	return &conversationService{
		conversationRepo: conversationRepo,
		memberRepo:       memberRepo,
	}
}

func (s *conversationService) GetOrCreate(ctx context.Context, caller *models.Member, otherMemberID string) (*models.Conversation, error) {
	if otherMemberID == "" {
		return nil, fmt.Errorf("%w: member id missing", pkg.ErrBadRequest)
	}
	if otherMemberID == caller.ID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", pkg.ErrBadRequest)
	}

	other, err := s.memberRepo.GetByID(ctx, otherMemberID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: member not found", pkg.ErrNotFound)
		}
		return nil, err
	}
	if other.ServerID != caller.ServerID {
		return nil, fmt.Errorf("%w: member not found", pkg.ErrNotFound)
	}

	one, two := orderedPair(caller.ID, other.ID)

	conversation, err := s.find(ctx, one, two)
	if errors.Is(err, pkg.ErrNotFound) {
		conversation = &models.Conversation{MemberOneID: one, MemberTwoID: two}
		err = s.conversationRepo.Create(ctx, conversation)
		if errors.Is(err, pkg.ErrAlreadyExists) {
			// Lost a race with a concurrent create of the same pair,
			// started from either side.
			conversation, err = s.find(ctx, one, two)
		} else if err == nil {
			log.Printf("[dm] conversation %s opened between %s and %s", conversation.ID, one, two)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}

	return s.withMembers(ctx, conversation)
}

// orderedPair sorts two member ids. New conversations are stored in this
// order, so the (member_one_id, member_two_id) unique key holds for the
// unordered pair.
func orderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// find looks the pair up in both orders.
func (s *conversationService) find(ctx context.Context, a, b string) (*models.Conversation, error) {
	conversation, err := s.conversationRepo.Find(ctx, a, b)
	if errors.Is(err, pkg.ErrNotFound) {
		return s.conversationRepo.Find(ctx, b, a)
	}
	return conversation, err
}

func (s *conversationService) withMembers(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	var err error
	if conversation.MemberOne, err = s.memberRepo.GetWithProfile(ctx, conversation.MemberOneID); err != nil {
		return nil, fmt.Errorf("failed to load conversation member: %w", err)
	}
	if conversation.MemberTwo, err = s.memberRepo.GetWithProfile(ctx, conversation.MemberTwoID); err != nil {
		return nil, fmt.Errorf("failed to load conversation member: %w", err)
	}
	return conversation, nil
}

type directMessageService struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.DirectMessageRepository
	memberRepo       repository.MemberRepository
	hub              ws.EventPublisher
	limiter          RateLimiter
}

func NewDirectMessageService(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.DirectMessageRepository,
	memberRepo repository.MemberRepository,
	hub ws.EventPublisher,
	limiter RateLimiter,
) DirectMessageService {
	return &directMessageService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		memberRepo:       memberRepo,
		hub:              hub,
		limiter:          limiter,
	}
}

func (s *directMessageService) List(ctx context.Context, profileID, conversationID, cursor string) (*models.Page[models.DirectMessage], error) {
	conversation, _, err := s.participant(ctx, profileID, conversationID)
	if err != nil {
		return nil, err
	}

	rows, err := s.messageRepo.ListByConversation(ctx, conversation.ID, cursor, models.MessagesBatch+1)
	if err != nil {
		if cursor != "" && errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid cursor", pkg.ErrBadRequest)
		}
		return nil, fmt.Errorf("failed to list direct messages: %w", err)
	}

	page := models.NewPage(rows, models.MessagesBatch, func(m models.DirectMessage) string { return m.ID })
	return &page, nil
}

func (s *directMessageService) Create(ctx context.Context, profileID, conversationID string, req *models.CreateMessageRequest) (*models.DirectMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	conversation, sender, err := s.participant(ctx, profileID, conversationID)
	if err != nil {
		return nil, err
	}

	if err := checkRateLimit(s.limiter, profileID); err != nil {
		return nil, err
	}

	message := &models.DirectMessage{
		Content:        req.Content,
		FileURL:        optionalString(req.FileURL),
		MemberID:       sender.ID,
		ConversationID: conversation.ID,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create direct message: %w", err)
	}

	created, err := s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created direct message: %w", err)
	}

	s.hub.Publish(ws.MessagesTopic(conversation.ID), ws.Event{Op: ws.OpMessageCreate, Data: created})
	return created, nil
}

func (s *directMessageService) Update(ctx context.Context, profileID, conversationID, messageID string, req *models.UpdateMessageRequest) (*models.DirectMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	conversation, sender, err := s.participant(ctx, profileID, conversationID)
	if err != nil {
		return nil, err
	}

	message, err := s.message(ctx, conversation, messageID)
	if err != nil {
		return nil, err
	}
	if message.MemberID != sender.ID {
		return nil, fmt.Errorf("%w: only the author can edit a message", pkg.ErrUnauthorized)
	}
	if message.Deleted {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}

	if err := s.messageRepo.UpdateContent(ctx, message.ID, req.Content); err != nil {
		return nil, fmt.Errorf("failed to update direct message: %w", err)
	}

	updated, err := s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated direct message: %w", err)
	}

	s.hub.Publish(ws.MessagesUpdateTopic(conversation.ID), ws.Event{Op: ws.OpMessageUpdate, Data: updated})
	return updated, nil
}

func (s *directMessageService) Delete(ctx context.Context, profileID, conversationID, messageID string) (*models.DirectMessage, error) {
	conversation, sender, err := s.participant(ctx, profileID, conversationID)
	if err != nil {
		return nil, err
	}

	message, err := s.message(ctx, conversation, messageID)
	if err != nil {
		return nil, err
	}
	if message.MemberID != sender.ID && !sender.Role.CanModerate() {
		return nil, fmt.Errorf("%w: insufficient permissions", pkg.ErrForbidden)
	}

	if err := s.messageRepo.SoftDelete(ctx, message.ID); err != nil {
		return nil, fmt.Errorf("failed to delete direct message: %w", err)
	}

	deleted, err := s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deleted direct message: %w", err)
	}

	s.hub.Publish(ws.MessagesUpdateTopic(conversation.ID), ws.Event{Op: ws.OpMessageDelete, Data: deleted})
	return deleted, nil
}

// participant returns the conversation and the caller's side of it.
// Outsiders get pkg.ErrNotFound.
func (s *directMessageService) participant(ctx context.Context, profileID, conversationID string) (*models.Conversation, *models.Member, error) {
	if conversationID == "" {
		return nil, nil, fmt.Errorf("%w: conversation id missing", pkg.ErrBadRequest)
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: conversation not found", pkg.ErrNotFound)
		}
		return nil, nil, err
	}

	for _, memberID := range []string{conversation.MemberOneID, conversation.MemberTwoID} {
		member, err := s.memberRepo.GetByID(ctx, memberID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load conversation member: %w", err)
		}
		if member.ProfileID == profileID {
			return conversation, member, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: conversation not found", pkg.ErrNotFound)
}

func (s *directMessageService) message(ctx context.Context, conversation *models.Conversation, messageID string) (*models.DirectMessage, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
		}
		return nil, err
	}
	if message.ConversationID != conversation.ID {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	return message, nil
}
