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

// MemberService resolves memberships and lets admins manage other members.
type MemberService interface {
	// Membership returns profileID's member row in serverID. Missing
	// servers and non-members both yield pkg.ErrNotFound.
	Membership(ctx context.Context, serverID, profileID string) (*models.Member, error)

	// UpdateRole changes another member's role. ADMIN only; neither the
	// caller nor the server owner can be targeted.
	UpdateRole(ctx context.Context, caller *models.Member, memberID string, req *models.UpdateMemberRoleRequest) (*models.ServerWithMembers, error)

	// Kick removes another member under the same rules as UpdateRole.
	// The kicked profile loses its live subscriptions to the server's
	// channels and to its conversations there.
	Kick(ctx context.Context, caller *models.Member, memberID string) (*models.ServerWithMembers, error)
}

type memberService struct {
	serverRepo  repository.ServerRepository
	channelRepo repository.ChannelRepository
	memberRepo  repository.MemberRepository
	hub         ws.SubscriptionRevoker
}

func NewMemberService(
	serverRepo repository.ServerRepository,
	channelRepo repository.ChannelRepository,
	memberRepo repository.MemberRepository,
	hub ws.SubscriptionRevoker,
) MemberService {
	return &memberService{
		serverRepo:  serverRepo,
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
		hub:         hub,
	}
}

func (s *memberService) Membership(ctx context.Context, serverID, profileID string) (*models.Member, error) {
	member, err := s.memberRepo.GetByServerAndProfile(ctx, serverID, profileID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: server not found", pkg.ErrNotFound)
	}
	return member, err
}

func (s *memberService) UpdateRole(ctx context.Context, caller *models.Member, memberID string, req *models.UpdateMemberRoleRequest) (*models.ServerWithMembers, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	target, err := s.manageableMember(ctx, caller, memberID)
	if err != nil {
		return nil, err
	}

	if err := s.memberRepo.UpdateRole(ctx, target.ID, req.Role); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	log.Printf("[member] %s is now %s in server %s", target.ID, req.Role, target.ServerID)
	return loadServerDetail(ctx, s.serverRepo, s.channelRepo, s.memberRepo, caller.ServerID)
}

func (s *memberService) Kick(ctx context.Context, caller *models.Member, memberID string) (*models.ServerWithMembers, error) {
	target, err := s.manageableMember(ctx, caller, memberID)
	if err != nil {
		return nil, err
	}

	if err := s.memberRepo.Delete(ctx, target.ID); err != nil {
		return nil, fmt.Errorf("failed to kick member: %w", err)
	}

	s.hub.RevokeProfile(target.ProfileID)

	log.Printf("[member] %s kicked from server %s", target.ID, target.ServerID)
	return loadServerDetail(ctx, s.serverRepo, s.channelRepo, s.memberRepo, caller.ServerID)
}

// manageableMember applies the shared rules of UpdateRole and Kick.
func (s *memberService) manageableMember(ctx context.Context, caller *models.Member, memberID string) (*models.Member, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id missing", pkg.ErrBadRequest)
	}
	if caller.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: insufficient permissions", pkg.ErrForbidden)
	}

	target, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: member not found", pkg.ErrNotFound)
		}
		return nil, err
	}
	if target.ServerID != caller.ServerID {
		return nil, fmt.Errorf("%w: member not found", pkg.ErrNotFound)
	}
	if target.ID == caller.ID {
		return nil, fmt.Errorf("%w: cannot change your own membership", pkg.ErrBadRequest)
	}

	server, err := s.serverRepo.GetByID(ctx, caller.ServerID)
	if err != nil {
		return nil, err
	}
	if server.IsOwner(target.ProfileID) {
		return nil, fmt.Errorf("%w: cannot change the server owner", pkg.ErrForbidden)
	}

	return target, nil
}
