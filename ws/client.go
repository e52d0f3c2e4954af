package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// pongWait allows three missed 30s heartbeats.
	pongWait = 90 * time.Second

	// authorizeTimeout bounds the membership lookup of a subscribe.
	authorizeTimeout = 5 * time.Second

	maxMessageSize = 4096
	sendBufferSize = 256

	// maxTopicsPerClient caps subscriptions of one connection.
	maxTopicsPerClient = 256
)

var errInvalidTopic = errors.New("invalid topic")

// Client is one WebSocket connection. ReadPump and WritePump run in their
// own goroutines; only WritePump writes to conn.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	profileID  string
	authorizer SubscriptionAuthorizer

	send chan []byte

	// topics is guarded by hub.mu.
	topics map[string]bool

	mu sync.Mutex
}

func newClient(hub *Hub, conn *websocket.Conn, profileID string, authorizer SubscriptionAuthorizer) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		profileID:  profileID,
		authorizer: authorizer,
		send:       make(chan []byte, sendBufferSize),
		topics:     make(map[string]bool),
	}
}

// ReadPump reads client frames until the connection fails, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for profile %s: %v", c.profileID, err)
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for profile %s: %v", c.profileID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.sendError("", "invalid frame")
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if c.conn != nil {
			if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				log.Printf("[ws] failed to extend read deadline for profile %s: %v", c.profileID, err)
			}
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpSubscribe:
		c.handleSubscribe(event.Topic)

	case OpUnsubscribe:
		c.hub.unsubscribe(c, event.Topic)
		c.sendEvent(Event{Op: OpUnsubscribed, Topic: event.Topic})

	default:
		c.sendError(event.Topic, "unknown op")
	}
}

// handleSubscribe checks the topic shape and asks the authorizer whether
// the profile may read it.
func (c *Client) handleSubscribe(topic string) {
	id, ok := ParseTopic(topic)
	if !ok {
		c.sendError(topic, "invalid topic")
		return
	}

	if c.subscriptionCount() >= maxTopicsPerClient {
		c.sendError(topic, "too many subscriptions")
		return
	}

	revocations := c.hub.revocations.Load()
	if err := c.authorizeID(id); err != nil {
		c.sendError(topic, "forbidden")
		return
	}

	if !c.hub.subscribe(c, topic) {
		return
	}

	// A revocation that ran between the check and the subscribe could not
	// see this topic yet.
	if c.hub.revocations.Load() != revocations {
		if err := c.authorizeID(id); err != nil {
			c.hub.dropTopic(c, topic)
			c.sendError(topic, "forbidden")
			return
		}
	}
	c.sendEvent(Event{Op: OpSubscribed, Topic: topic})
}

// authorize checks a held topic again. Malformed topics never pass.
func (c *Client) authorize(topic string) error {
	id, ok := ParseTopic(topic)
	if !ok {
		return errInvalidTopic
	}
	return c.authorizeID(id)
}

func (c *Client) authorizeID(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
	defer cancel()
	return c.authorizer.AuthorizeTopic(ctx, c.profileID, id)
}

func (c *Client) subscriptionCount() int {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return len(c.topics)
}

func (c *Client) sendError(topic, reason string) {
	c.sendEvent(Event{Op: OpError, Topic: topic, Data: map[string]string{"error": reason}})
}

// sendEvent queues a reply to this client only.
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for profile %s: %v", c.profileID, err)
		return
	}

	if !c.hub.sendTo(c, data) {
		log.Printf("[ws] reply dropped for profile %s", c.profileID)
	}
}

// WritePump drains send until the hub closes it.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
