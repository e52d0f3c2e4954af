package handlers

import (
	"net/http"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// MemberHandler serves /api/servers/{serverId}/members/{memberId}.
type MemberHandler struct {
	memberService services.MemberService
}

func NewMemberHandler(memberService services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// UpdateRole godoc
// PATCH /api/servers/{serverId}/members/{memberId}
// Body: {"role": "MODERATOR"}
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	var req models.UpdateMemberRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	server, err := h.memberService.UpdateRole(r.Context(), member, r.PathValue("memberId"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}

// Kick godoc
// DELETE /api/servers/{serverId}/members/{memberId}
func (h *MemberHandler) Kick(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	server, err := h.memberService.Kick(r.Context(), member, r.PathValue("memberId"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}
