package handlers

import (
	"net/http"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// MessageHandler serves channel messages.
type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// List godoc
// GET /api/servers/{serverId}/channels/{channelId}/messages?cursor={id}
// Newest first; pass nextCursor back to get the next page.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	page, err := h.messageService.List(r.Context(), member, r.PathValue("channelId"), r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// Create godoc
// POST /api/servers/{serverId}/channels/{channelId}/messages
// Body: {"content": "...", "fileUrl": "..."}
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	var req models.CreateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Create(r.Context(), member, r.PathValue("channelId"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, msg)
}

// Update godoc
// PATCH /api/servers/{serverId}/channels/{channelId}/messages/{messageId}
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	var req models.UpdateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Update(r.Context(), member, r.PathValue("channelId"), r.PathValue("messageId"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

// Delete godoc
// DELETE /api/servers/{serverId}/channels/{channelId}/messages/{messageId}
// Soft delete: the tombstone is returned and broadcast.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	msg, err := h.messageService.Delete(r.Context(), member, r.PathValue("channelId"), r.PathValue("messageId"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}
