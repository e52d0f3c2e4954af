package handlers

import (
	"net/http"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// ChannelHandler serves /api/servers/{serverId}/channels.
type ChannelHandler struct {
	channelService services.ChannelService
}

func NewChannelHandler(channelService services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// Create godoc
// POST /api/servers/{serverId}/channels
// Body: {"name": "...", "type": "TEXT|AUDIO|VIDEO"}
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	var req models.CreateChannelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	server, err := h.channelService.Create(r.Context(), member, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, server)
}

// Get godoc
// GET /api/servers/{serverId}/channels/{channelId}
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	channel, err := h.channelService.Get(r.Context(), member, r.PathValue("channelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, channel)
}

// Default godoc
// GET /api/servers/{serverId}/default-channel
func (h *ChannelHandler) Default(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	channel, err := h.channelService.Default(r.Context(), member)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, channel)
}

// Update godoc
// PATCH /api/servers/{serverId}/channels/{channelId}
func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	var req models.UpdateChannelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	server, err := h.channelService.Update(r.Context(), member, r.PathValue("channelId"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}

// Delete godoc
// DELETE /api/servers/{serverId}/channels/{channelId}
func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	server, err := h.channelService.Delete(r.Context(), member, r.PathValue("channelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}
