package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/pkg/email"
	"github.com/rossosss/zvonok/repository"
)

// InviteService resolves invite codes.
//
// A code is the server's current invite code; regenerating it through
// ServerService invalidates links already handed out. Codes are trimmed
// before lookup and a blank code is pkg.ErrBadRequest.
type InviteService interface {
	// Preview shows the server behind code without joining it.
	Preview(ctx context.Context, code string) (*models.InvitePreview, error)

	// Join adds the profile to the server of code as GUEST. An existing
	// member just gets the server back.
	Join(ctx context.Context, profileID, code string) (*models.Server, error)

	// SendEmail mails the invite link of the caller's server.
	// ADMIN or MODERATOR only. Without a configured sender it returns
	// pkg.ErrUnavailable; other sender failures are wrapped and masked.
	SendEmail(ctx context.Context, caller *models.Member, req *models.InviteEmailRequest) error
}

type inviteService struct {
	serverRepo repository.ServerRepository
	memberRepo repository.MemberRepository
	sender     email.Sender
}

func NewInviteService(
	serverRepo repository.ServerRepository,
	memberRepo repository.MemberRepository,
	sender email.Sender,
) InviteService {
	return &inviteService{
		serverRepo: serverRepo,
		memberRepo: memberRepo,
		sender:     sender,
	}
}

func (s *inviteService) Preview(ctx context.Context, code string) (*models.InvitePreview, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: invite code missing", pkg.ErrBadRequest)
	}

	preview, err := s.serverRepo.Preview(ctx, code)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: invite not found", pkg.ErrNotFound)
	}
	return preview, err
}

func (s *inviteService) Join(ctx context.Context, profileID, code string) (*models.Server, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: invite code missing", pkg.ErrBadRequest)
	}

	server, err := s.serverRepo.GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invite not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	isMember, err := s.memberRepo.IsMember(ctx, server.ID, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return server, nil
	}

	member := &models.Member{
		Role:      models.RoleGuest,
		ProfileID: profileID,
		ServerID:  server.ID,
	}
	inserted, err := s.memberRepo.CreateIfAbsent(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to join server: %w", err)
	}
	if inserted {
		log.Printf("[invite] profile %s joined server %s", profileID, server.ID)
	}
	return server, nil
}

func (s *inviteService) SendEmail(ctx context.Context, caller *models.Member, req *models.InviteEmailRequest) error {
	if err := requireModerator(caller); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	server, err := s.serverRepo.GetByID(ctx, caller.ServerID)
	if err != nil {
		return err
	}

	if err := s.sender.SendInvite(ctx, req.Email, server.Name, server.InviteCode); err != nil {
		if errors.Is(err, pkg.ErrUnavailable) {
			return err
		}
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}
