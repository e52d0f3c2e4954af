package handlers

import (
	"net/http"

	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// VoiceHandler hands out LiveKit room tokens for AUDIO and VIDEO channels.
type VoiceHandler struct {
	voiceService services.VoiceService
}

func NewVoiceHandler(voiceService services.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

// RoomToken godoc
// GET /api/servers/{serverId}/channels/{channelId}/token
func (h *VoiceHandler) RoomToken(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	token, err := h.voiceService.RoomToken(r.Context(), member, profile, r.PathValue("channelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, token)
}
