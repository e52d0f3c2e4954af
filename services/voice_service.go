package services

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/rossosss/zvonok/config"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/repository"
)

const roomTokenTTL = 6 * time.Hour

// VoiceService signs LiveKit join tokens for AUDIO and VIDEO channels.
// Media itself flows between the client and LiveKit.
type VoiceService interface {
	// RoomToken returns a token that lets profile join the room named after
	// channelID, together with the LiveKit URL. The profile id is the
	// participant identity and the profile name its display name.
	//
	// TEXT channels are pkg.ErrBadRequest, channels of other servers
	// pkg.ErrNotFound, and a server started without LiveKit keys
	// pkg.ErrUnavailable.
	RoomToken(ctx context.Context, caller *models.Member, profile *models.Profile, channelID string) (*models.RoomToken, error)
}

type voiceService struct {
	channelRepo repository.ChannelRepository
	livekitCfg  config.LiveKitConfig
}

func NewVoiceService(channelRepo repository.ChannelRepository, livekitCfg config.LiveKitConfig) VoiceService {
	return &voiceService{
		channelRepo: channelRepo,
		livekitCfg:  livekitCfg,
	}
}

func (s *voiceService) RoomToken(ctx context.Context, caller *models.Member, profile *models.Profile, channelID string) (*models.RoomToken, error) {
	if s.livekitCfg.APIKey == "" || s.livekitCfg.APISecret == "" {
		return nil, fmt.Errorf("%w: media server is not configured", pkg.ErrUnavailable)
	}

	channel, err := s.channelRepo.GetInServer(ctx, caller.ServerID, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.Type.IsMedia() {
		return nil, fmt.Errorf("%w: not a voice or video channel", pkg.ErrBadRequest)
	}

	canPublish := true
	canSubscribe := true
	canPublishData := true

	// The room is named after the channel id.
	at := auth.NewAccessToken(s.livekitCfg.APIKey, s.livekitCfg.APISecret)
	at.AddGrant(&auth.VideoGrant{
		RoomJoin:       true,
		Room:           channel.ID,
		CanPublish:     &canPublish,
		CanSubscribe:   &canSubscribe,
		CanPublishData: &canPublishData,
	}).
		SetIdentity(profile.ID).
		SetName(profile.Name).
		SetValidFor(roomTokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to generate livekit token: %w", err)
	}

	return &models.RoomToken{
		Token:     token,
		URL:       s.livekitCfg.URL,
		ChannelID: channel.ID,
	}, nil
}
