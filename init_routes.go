package main

import (
	"net/http"
	"strings"

	"github.com/rossosss/zvonok/middleware"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// initRoutes registers every endpoint on mux.
//
// Chains: auth (bearer token) and authServer (auth + membership of
// {serverId}).
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService, memberService services.MemberService, uploadDir string) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService)
	serverMw := middleware.NewServerMembershipMiddleware(memberService)

	// ─── Middleware Chain Helpers ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}
	authServer := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(serverMw.Require(http.HandlerFunc(handler)))
	}

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "zvonok"})
	})

	// Profile & landing
	mux.Handle("GET /api/profile", auth(h.Profile.Me))
	mux.Handle("GET /api/setup", auth(h.Server.Setup))

	// Servers
	mux.Handle("GET /api/servers", auth(h.Server.List))
	mux.Handle("POST /api/servers", auth(h.Server.Create))

	// Invites
	mux.Handle("GET /api/invites/{inviteCode}", auth(h.Invite.Preview))
	mux.Handle("POST /api/invites/{inviteCode}", auth(h.Invite.Join))

	// Server-scoped: caller must be a member. Leave is the exception, a
	// non-member gets 400 from the service rather than 404 from middleware.
	mux.Handle("GET /api/servers/{serverId}", authServer(h.Server.Get))
	mux.Handle("PATCH /api/servers/{serverId}", authServer(h.Server.Update))
	mux.Handle("DELETE /api/servers/{serverId}", authServer(h.Server.Delete))
	mux.Handle("PATCH /api/servers/{serverId}/invite-code", authServer(h.Server.RegenerateInviteCode))
	mux.Handle("POST /api/servers/{serverId}/invite-email", authServer(h.Invite.SendEmail))
	mux.Handle("PATCH /api/servers/{serverId}/leave", auth(h.Server.Leave))
	mux.Handle("GET /api/servers/{serverId}/default-channel", authServer(h.Channel.Default))

	// Channels
	mux.Handle("POST /api/servers/{serverId}/channels", authServer(h.Channel.Create))
	mux.Handle("GET /api/servers/{serverId}/channels/{channelId}", authServer(h.Channel.Get))
	mux.Handle("PATCH /api/servers/{serverId}/channels/{channelId}", authServer(h.Channel.Update))
	mux.Handle("DELETE /api/servers/{serverId}/channels/{channelId}", authServer(h.Channel.Delete))
	mux.Handle("GET /api/servers/{serverId}/channels/{channelId}/token", authServer(h.Voice.RoomToken))

	// Members
	mux.Handle("PATCH /api/servers/{serverId}/members/{memberId}", authServer(h.Member.UpdateRole))
	mux.Handle("DELETE /api/servers/{serverId}/members/{memberId}", authServer(h.Member.Kick))

	// Channel messages
	mux.Handle("GET /api/servers/{serverId}/channels/{channelId}/messages", authServer(h.Message.List))
	mux.Handle("POST /api/servers/{serverId}/channels/{channelId}/messages", authServer(h.Message.Create))
	mux.Handle("PATCH /api/servers/{serverId}/channels/{channelId}/messages/{messageId}", authServer(h.Message.Update))
	mux.Handle("DELETE /api/servers/{serverId}/channels/{channelId}/messages/{messageId}", authServer(h.Message.Delete))

	// Conversations & direct messages
	mux.Handle("POST /api/servers/{serverId}/conversations", authServer(h.DM.GetOrCreateConversation))
	mux.Handle("GET /api/conversations/{conversationId}/messages", auth(h.DM.ListMessages))
	mux.Handle("POST /api/conversations/{conversationId}/messages", auth(h.DM.CreateMessage))
	mux.Handle("PATCH /api/conversations/{conversationId}/messages/{messageId}", auth(h.DM.UpdateMessage))
	mux.Handle("DELETE /api/conversations/{conversationId}/messages/{messageId}", auth(h.DM.DeleteMessage))

	// Uploads
	mux.Handle("POST /api/upload", auth(h.Upload.Upload))
	mux.Handle("GET "+services.UploadURLPrefix, uploadsHandler(uploadDir))

	// WebSocket authenticates through ?token= since browsers cannot set
	// headers on the upgrade request.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}

// uploadsHandler serves stored uploads by flat file name only. Browsers
// must not second-guess the type taken from the extension.
func uploadsHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.StripPrefix(services.UploadURLPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.ContainsAny(r.URL.Path, `/\`) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	}))
}
