package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/rossosss/zvonok/models"
)

// Authenticator turns the bearer token of the connection into a profile.
// Declared here so ws does not import services.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Profile, error)
}

// SubscriptionAuthorizer decides whether profileID may read the topics of
// id, a channel or conversation id.
type SubscriptionAuthorizer interface {
	AuthorizeTopic(ctx context.Context, profileID, id string) error
}

// Handler upgrades /ws requests.
type Handler struct {
	hub        *Hub
	auth       Authenticator
	authorizer SubscriptionAuthorizer
	upgrader   websocket.Upgrader
}

// NewHandler accepts connections whose Origin is in allowedOrigins ("*"
// allows any). Requests without an Origin header are not browsers and are
// accepted.
func NewHandler(hub *Hub, auth Authenticator, authorizer SubscriptionAuthorizer, allowedOrigins []string) *Handler {
	return &Handler{
		hub:        hub,
		auth:       auth,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// HandleConnection authenticates ?token=, upgrades, registers the client
// and blocks in ReadPump until the connection ends. Browsers cannot set
// headers on a WebSocket handshake, hence the query parameter.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	profile, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for profile %s: %v", profile.ID, err)
		return
	}

	client := newClient(h.hub, conn, profile.ID, h.authorizer)

	// The client is not registered yet, so nothing else touches send.
	if ready, err := json.Marshal(Event{Op: OpReady, Data: map[string]string{"profile_id": profile.ID}}); err == nil {
		client.send <- ready
	}

	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}
