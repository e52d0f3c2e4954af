package handlers

import (
	"net/http"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// DMHandler serves conversations and their direct messages.
//
// Opening a conversation is server-scoped (both members belong to the
// path's server). Message routes are keyed by conversation id alone; the
// service resolves which side of the conversation the caller is.
type DMHandler struct {
	conversationService services.ConversationService
	messageService      services.DirectMessageService
}

func NewDMHandler(conversationService services.ConversationService, messageService services.DirectMessageService) *DMHandler {
	return &DMHandler{
		conversationService: conversationService,
		messageService:      messageService,
	}
}

// GetOrCreateConversation godoc
// POST /api/servers/{serverId}/conversations
// Body: {"memberId": "..."}
func (h *DMHandler) GetOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	var req models.CreateConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	conversation, err := h.conversationService.GetOrCreate(r.Context(), member, req.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, conversation)
}

// ListMessages godoc
// GET /api/conversations/{conversationId}/messages?cursor={id}
func (h *DMHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	page, err := h.messageService.List(r.Context(), profile.ID, r.PathValue("conversationId"), r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// CreateMessage godoc
// POST /api/conversations/{conversationId}/messages
func (h *DMHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	var req models.CreateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Create(r.Context(), profile.ID, r.PathValue("conversationId"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, msg)
}

// UpdateMessage godoc
// PATCH /api/conversations/{conversationId}/messages/{messageId}
func (h *DMHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	var req models.UpdateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Update(r.Context(), profile.ID, r.PathValue("conversationId"), r.PathValue("messageId"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

// DeleteMessage godoc
// DELETE /api/conversations/{conversationId}/messages/{messageId}
func (h *DMHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	msg, err := h.messageService.Delete(r.Context(), profile.ID, r.PathValue("conversationId"), r.PathValue("messageId"))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}
