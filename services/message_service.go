package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/repository"
	"github.com/rossosss/zvonok/ws"
)

// RateLimiter throttles message posting per profile.
// *ratelimit.MessageRateLimiter satisfies it.
type RateLimiter interface {
	Allow(key string) bool
	CooldownSeconds(key string) int
}

// RateLimitedError is returned when a profile posts too fast.
// It unwraps to pkg.ErrTooManyRequests.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: slow down and retry in %d seconds", pkg.ErrTooManyRequests, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return pkg.ErrTooManyRequests
}

func checkRateLimit(limiter RateLimiter, profileID string) error {
	if limiter == nil || limiter.Allow(profileID) {
		return nil
	}
	return &RateLimitedError{RetryAfter: limiter.CooldownSeconds(profileID)}
}

// MessageService handles channel messages. Every write is published on the
// channel's topics:
//
//	chat:{channelId}:messages         new messages (message_create)
//	chat:{channelId}:messages:update  edits and deletions (message_update, message_delete)
//
// The caller's membership is resolved by the membership middleware; the
// channel must belong to the caller's server or the call yields
// pkg.ErrNotFound. Writes are rate limited per profile, and a refused
// write returns a *RateLimitedError carrying the retry delay.
type MessageService interface {
	// List returns one page of the channel, newest first. cursor is the
	// nextCursor of the previous page; it names the first row of the page
	// it opens. Deleted messages are left out. A cursor that is not a
	// message of this channel yields pkg.ErrBadRequest.
	List(ctx context.Context, caller *models.Member, channelID, cursor string) (*models.Page[models.Message], error)

	// Create stores a message by caller. Content is required; fileUrl is
	// optional and must point at a stored upload.
	Create(ctx context.Context, caller *models.Member, channelID string, req *models.CreateMessageRequest) (*models.Message, error)

	// Update edits the content. Only the author may edit.
	Update(ctx context.Context, caller *models.Member, channelID, messageID string, req *models.UpdateMessageRequest) (*models.Message, error)

	// Delete soft-deletes the message. Allowed for the author, ADMIN and
	// MODERATOR.
	Delete(ctx context.Context, caller *models.Member, channelID, messageID string) (*models.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
	hub         ws.EventPublisher
	limiter     RateLimiter
}

// NewMessageService wires the channel message flow.
//
// hub receives every create, update and delete. limiter may be nil to
// disable rate limiting, which the tests do.
func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	hub ws.EventPublisher,
	limiter RateLimiter,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		hub:         hub,
		limiter:     limiter,
	}
}

func (s *messageService) List(ctx context.Context, caller *models.Member, channelID, cursor string) (*models.Page[models.Message], error) {
	channel, err := s.channel(ctx, caller, channelID)
	if err != nil {
		return nil, err
	}

	// One extra row tells whether another page exists.
	rows, err := s.messageRepo.ListByChannel(ctx, channel.ID, cursor, models.MessagesBatch+1)
	if err != nil {
		if cursor != "" && errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid cursor", pkg.ErrBadRequest)
		}
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	page := models.NewPage(rows, models.MessagesBatch, func(m models.Message) string { return m.ID })
	return &page, nil
}

func (s *messageService) Create(ctx context.Context, caller *models.Member, channelID string, req *models.CreateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	channel, err := s.channel(ctx, caller, channelID)
	if err != nil {
		return nil, err
	}

	if err := checkRateLimit(s.limiter, caller.ProfileID); err != nil {
		return nil, err
	}

	message := &models.Message{
		Content:   req.Content,
		FileURL:   optionalString(req.FileURL),
		MemberID:  caller.ID,
		ChannelID: channel.ID,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Re-read to return the author with the message.
	created, err := s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created message: %w", err)
	}

	s.hub.Publish(ws.MessagesTopic(channel.ID), ws.Event{Op: ws.OpMessageCreate, Data: created})
	return created, nil
}

func (s *messageService) Update(ctx context.Context, caller *models.Member, channelID, messageID string, req *models.UpdateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	message, err := s.message(ctx, caller, channelID, messageID)
	if err != nil {
		return nil, err
	}
	if message.MemberID != caller.ID {
		return nil, fmt.Errorf("%w: only the author can edit a message", pkg.ErrUnauthorized)
	}
	if message.Deleted {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}

	if err := s.messageRepo.UpdateContent(ctx, message.ID, req.Content); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	updated, err := s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated message: %w", err)
	}

	s.hub.Publish(ws.MessagesUpdateTopic(message.ChannelID), ws.Event{Op: ws.OpMessageUpdate, Data: updated})
	return updated, nil
}

func (s *messageService) Delete(ctx context.Context, caller *models.Member, channelID, messageID string) (*models.Message, error) {
	message, err := s.message(ctx, caller, channelID, messageID)
	if err != nil {
		return nil, err
	}
	if message.MemberID != caller.ID && !caller.Role.CanModerate() {
		return nil, fmt.Errorf("%w: insufficient permissions", pkg.ErrForbidden)
	}

	if err := s.messageRepo.SoftDelete(ctx, message.ID); err != nil {
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}

	deleted, err := s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deleted message: %w", err)
	}

	s.hub.Publish(ws.MessagesUpdateTopic(message.ChannelID), ws.Event{Op: ws.OpMessageDelete, Data: deleted})
	return deleted, nil
}

func (s *messageService) channel(ctx context.Context, caller *models.Member, channelID string) (*models.Channel, error) {
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel id missing", pkg.ErrBadRequest)
	}
	channel, err := s.channelRepo.GetInServer(ctx, caller.ServerID, channelID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: channel not found", pkg.ErrNotFound)
	}
	return channel, err
}

// message loads messageID and checks it belongs to channelID in the
// caller's server.
func (s *messageService) message(ctx context.Context, caller *models.Member, channelID, messageID string) (*models.Message, error) {
	channel, err := s.channel(ctx, caller, channelID)
	if err != nil {
		return nil, err
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
		}
		return nil, err
	}
	if message.ChannelID != channel.ID {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	return message, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
