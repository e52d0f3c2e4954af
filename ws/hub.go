package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventPublisher is what services use to fan events out. Publish never
// blocks on slow clients.
//
// Services depend on this interface rather than on *Hub, so their tests
// record publishes with a fake.
type EventPublisher interface {
	Publish(topic string, event Event)
}

// SubscriptionRevoker withdraws live subscriptions once the access that
// granted them is gone. Services call it after the change is committed:
// kicks, leaves, channel and server deletions.
//
// A subscription is authorized once, when the client subscribes. Without a
// revocation a removed member would keep reading the channel until the
// connection closes.
type SubscriptionRevoker interface {
	// RevokeProfile re-authorizes every topic held by the connections of
	// profileID and drops the ones that no longer pass.
	RevokeProfile(profileID string)

	// CloseTopics drops every subscriber of topics, for resources that no
	// longer exist.
	CloseTopics(topics ...string)
}

// Hub tracks connected clients and their topic subscriptions.
// Disconnects are serialized through Run; registration, topic changes and
// publishing go through mu directly.
//
// One profile may hold several connections (tabs, devices). Each one
// subscribes on its own, and each subscription is authorized when made.
type Hub struct {
	// clients is the set of live connections.
	clients map[*Client]bool

	// topics maps a topic to its subscribers. Empty sets are removed, so
	// SubscriberCount is exact.
	topics map[string]map[*Client]bool

	// closed is set by Shutdown; later registrations are refused.
	closed bool

	// mu guards clients, topics, closed and every Client.topics. Publish
	// only reads, so concurrent publishes share the lock.
	mu sync.RWMutex

	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	// seq numbers published events across all topics.
	seq atomic.Int64

	// revocations counts RevokeProfile and CloseTopics calls. A subscribe
	// that raced one of them re-checks its authorization.
	revocations atomic.Int64
}

// NewHub returns an empty hub. Run must be started before clients
// disconnect, and Shutdown called once the HTTP server has stopped.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. Start it with `go hub.Run()`; it returns after
// Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Register adds client. After Shutdown the client's send buffer is closed
// at once, which ends its WritePump.
func (h *Hub) Register(client *Client) {
	h.addClient(client)
}

// Unregister queues client's removal. After Shutdown it is a no-op.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(client.send)
		return
	}
	h.clients[client] = true
	log.Printf("[ws] client connected: profile=%s (connections: %d)", client.profileID, len(h.clients))
}

// removeClient drops the client and its subscriptions and closes its send
// buffer. Removing an unknown client is a no-op.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)

	for topic := range client.topics {
		h.dropSubscriber(topic, client)
	}
	client.topics = nil
	close(client.send)

	log.Printf("[ws] client disconnected: profile=%s (connections: %d)", client.profileID, len(h.clients))
}

// subscribe adds client to topic. It reports false for a client that has
// already left.
func (h *Hub) subscribe(client *Client, topic string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return false
	}

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]bool)
		h.topics[topic] = subs
	}
	subs[client] = true
	client.topics[topic] = true
	return true
}

func (h *Hub) unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	h.dropSubscriber(topic, client)
	delete(client.topics, topic)
}

// dropSubscriber requires mu held.
func (h *Hub) dropSubscriber(topic string, client *Client) {
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish stamps event with topic and the next sequence number and queues
// it for every subscriber of topic.
//
// The event is encoded once and the same bytes go to every subscriber. A
// subscriber whose send buffer is full is disconnected after the loop; it
// can reconnect and reload the page it missed.
func (h *Hub) Publish(topic string, event Event) {
	event.Topic = topic
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for %s: %v", topic, err)
		return
	}

	var slow []*Client

	h.mu.RLock()
	for client := range h.topics[topic] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.Printf("[ws] send buffer full for profile %s, dropping connection", client.profileID)
		h.removeClient(client)
	}
}

// RevokeProfile re-runs the authorizer of each connection of profileID for
// every topic it holds. Failing topics are dropped and the client receives
// an unsubscribed event for each. A profile with no connections is a no-op.
//
// The lookups run outside the hub lock, so publishing continues meanwhile.
func (h *Hub) RevokeProfile(profileID string) {
	h.revocations.Add(1)

	type held struct {
		client *Client
		topics []string
	}

	var snapshot []held
	h.mu.RLock()
	for client := range h.clients {
		if client.profileID != profileID || len(client.topics) == 0 {
			continue
		}
		topics := make([]string, 0, len(client.topics))
		for topic := range client.topics {
			topics = append(topics, topic)
		}
		snapshot = append(snapshot, held{client: client, topics: topics})
	}
	h.mu.RUnlock()

	for _, s := range snapshot {
		for _, topic := range s.topics {
			if s.client.authorize(topic) == nil {
				continue
			}
			if h.dropTopic(s.client, topic) {
				log.Printf("[ws] revoked %s for profile %s", topic, profileID)
				s.client.sendEvent(Event{Op: OpUnsubscribed, Topic: topic})
			}
		}
	}
}

// CloseTopics unsubscribes everyone from topics and sends each of them an
// unsubscribed event.
func (h *Hub) CloseTopics(topics ...string) {
	h.revocations.Add(1)

	type dropped struct {
		client *Client
		topic  string
	}

	var removed []dropped
	h.mu.Lock()
	for _, topic := range topics {
		for client := range h.topics[topic] {
			delete(client.topics, topic)
			removed = append(removed, dropped{client: client, topic: topic})
		}
		delete(h.topics, topic)
	}
	h.mu.Unlock()

	for _, d := range removed {
		d.client.sendEvent(Event{Op: OpUnsubscribed, Topic: d.topic})
	}
}

// dropTopic unsubscribes client from topic. It reports whether the client
// still held it.
func (h *Hub) dropTopic(client *Client, topic string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] || !client.topics[topic] {
		return false
	}
	h.dropSubscriber(topic, client)
	delete(client.topics, topic)
	return true
}

// sendTo queues data for one client. It reports false when the client is
// gone or its buffer is full.
func (h *Hub) sendTo(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

// ConnectionCount returns the number of connected clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of clients subscribed to topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Shutdown disconnects every client and stops Run.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		h.closed = true
		for client := range h.clients {
			close(client.send)
		}
		h.clients = make(map[*Client]bool)
		h.topics = make(map[string]map[*Client]bool)

		log.Println("[ws] hub shut down")
	})
}
