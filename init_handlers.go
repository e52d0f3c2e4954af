package main

import (
	"github.com/rossosss/zvonok/config"
	"github.com/rossosss/zvonok/handlers"
	"github.com/rossosss/zvonok/ws"
)

// Handlers holds every HTTP handler.
type Handlers struct {
	Profile *handlers.ProfileHandler
	Server  *handlers.ServerHandler
	Channel *handlers.ChannelHandler
	Member  *handlers.MemberHandler
	Message *handlers.MessageHandler
	DM      *handlers.DMHandler
	Invite  *handlers.InviteHandler
	Voice   *handlers.VoiceHandler
	Upload  *handlers.UploadHandler
	WS      *ws.Handler
}

func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Profile: handlers.NewProfileHandler(),
		Server:  handlers.NewServerHandler(svcs.Server, svcs.Upload, cfg.Upload.MaxSize),
		Channel: handlers.NewChannelHandler(svcs.Channel),
		Member:  handlers.NewMemberHandler(svcs.Member),
		Message: handlers.NewMessageHandler(svcs.Message),
		DM:      handlers.NewDMHandler(svcs.Conversation, svcs.DirectMessage),
		Invite:  handlers.NewInviteHandler(svcs.Invite, limiters.InviteJoin),
		Voice:   handlers.NewVoiceHandler(svcs.Voice),
		Upload:  handlers.NewUploadHandler(svcs.Upload, cfg.Upload.MaxSize),
		WS:      ws.NewHandler(hub, svcs.Auth, svcs.Subscription, cfg.Server.AllowedOrigins),
	}
}
