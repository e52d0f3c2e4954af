package handlers

import (
	"net/http"
	"strconv"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/pkg/ratelimit"
	"github.com/rossosss/zvonok/services"
)

// InviteHandler serves invite links and invite e-mails.
type InviteHandler struct {
	inviteService services.InviteService
	joinLimiter   *ratelimit.WindowLimiter
}

// NewInviteHandler takes the per-IP limiter for join attempts; nil disables
// it.
func NewInviteHandler(inviteService services.InviteService, joinLimiter *ratelimit.WindowLimiter) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		joinLimiter:   joinLimiter,
	}
}

// Preview godoc
// GET /api/invites/{inviteCode}
func (h *InviteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.inviteService.Preview(r.Context(), r.PathValue("inviteCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, preview)
}

// Join godoc
// POST /api/invites/{inviteCode}
// Joins as GUEST. Already a member: the server is returned unchanged.
func (h *InviteHandler) Join(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	if h.joinLimiter != nil {
		ip := ratelimit.ExtractIP(r)
		if !h.joinLimiter.Allow(ip) {
			seconds := h.joinLimiter.RetryAfterSeconds(ip)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			pkg.ErrorWithMessage(w, http.StatusTooManyRequests, ratelimit.FormatRetryMessage(seconds))
			return
		}
	}

	server, err := h.inviteService.Join(r.Context(), profile.ID, r.PathValue("inviteCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}

// SendEmail godoc
// POST /api/servers/{serverId}/invite-email
// Body: {"email": "friend@example.com"}
func (h *InviteHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	var req models.InviteEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.inviteService.SendEmail(r.Context(), member, &req); err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "invite sent"})
}
