package main

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rossosss/zvonok/config"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg/cache"
	"github.com/rossosss/zvonok/pkg/email"
	"github.com/rossosss/zvonok/pkg/ratelimit"
	"github.com/rossosss/zvonok/services"
	"github.com/rossosss/zvonok/ws"
)

// profileCacheTTL bounds how long a token's identity skips the profile
// upsert.
const profileCacheTTL = 5 * time.Minute

// Services holds every service instance.
type Services struct {
	Profile       services.ProfileService
	Auth          services.AuthService
	Server        services.ServerService
	Channel       services.ChannelService
	Member        services.MemberService
	Message       services.MessageService
	Conversation  services.ConversationService
	DirectMessage services.DirectMessageService
	Invite        services.InviteService
	Voice         services.VoiceService
	Upload        services.UploadService
	Subscription  *services.SubscriptionService
}

// RateLimiters holds the in-memory limiters. They own cleanup goroutines
// and must be stopped on shutdown.
type RateLimiters struct {
	Message    *ratelimit.MessageRateLimiter
	InviteJoin *ratelimit.WindowLimiter
}

func (l *RateLimiters) Stop() {
	l.Message.Stop()
	l.InviteJoin.Stop()
}

// initServices wires the services. The returned cache must be closed on
// shutdown.
func initServices(db *sqlx.DB, repos *Repositories, hub *ws.Hub, cfg *config.Config) (*Services, *RateLimiters, *cache.TTLCache[string, *models.Profile]) {
	// ─── Rate Limiters ───
	limiters := &RateLimiters{
		Message: ratelimit.NewMessageRateLimiter(
			cfg.RateLimit.Messages, cfg.RateLimit.Window, cfg.RateLimit.Cooldown,
		),
		InviteJoin: ratelimit.NewWindowLimiter(cfg.RateLimit.InviteJoins, cfg.RateLimit.InviteWindow),
	}

	// ─── Email (optional) ───
	sender := email.New(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.AppURL)
	if cfg.Email.ResendAPIKey != "" {
		log.Printf("[main] email service enabled (from=%s)", cfg.Email.From)
	} else {
		log.Println("[main] email service disabled (RESEND_API_KEY not set)")
	}

	if !cfg.LiveKitEnabled() {
		log.Println("[main] livekit disabled (LIVEKIT_API_KEY or LIVEKIT_API_SECRET not set)")
	}

	profileCache := cache.New[string, *models.Profile](profileCacheTTL, time.Minute)
	profileService := services.NewProfileService(repos.Profile, profileCache)

	svcs := &Services{
		Profile:       profileService,
		Auth:          services.NewAuthService(profileService, cfg.JWT.Secret, cfg.JWT.Issuer),
		Server:        services.NewServerService(db, repos.Server, repos.Channel, repos.Member, hub),
		Channel:       services.NewChannelService(repos.Server, repos.Channel, repos.Member, hub),
		Member:        services.NewMemberService(repos.Server, repos.Channel, repos.Member, hub),
		Message:       services.NewMessageService(repos.Message, repos.Channel, hub, limiters.Message),
		Conversation:  services.NewConversationService(repos.Conversation, repos.Member),
		DirectMessage: services.NewDirectMessageService(repos.Conversation, repos.DirectMessage, repos.Member, hub, limiters.Message),
		Invite:        services.NewInviteService(repos.Server, repos.Member, sender),
		Voice:         services.NewVoiceService(repos.Channel, cfg.LiveKit),
		Upload:        services.NewUploadService(cfg.Upload.Dir, cfg.Upload.MaxSize),
		Subscription:  services.NewSubscriptionService(repos.Channel, repos.Member, repos.Conversation),
	}

	return svcs, limiters, profileCache
}
