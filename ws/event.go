// Package ws is the real-time hub. Clients connect over WebSocket,
// subscribe to topics and receive every event published on them.
//
// Flow of a message:
//  1. HTTP POST → service → DB insert
//  2. the service calls Hub.Publish("chat:{channelId}:messages", event)
//  3. the hub hands the encoded event to every subscriber's send buffer
//  4. each client's WritePump writes it to the socket
//
// Delivery is fire-and-forget: no retry, no acknowledgement. A subscriber
// whose buffer is full is disconnected.
package ws

import "strings"

// Event is one frame on the socket in either direction. Seq grows by one
// per published event so clients can notice gaps.
type Event struct {
	Op    string `json:"op"`
	Topic string `json:"topic,omitempty"`
	Data  any    `json:"d,omitempty"`
	Seq   int64  `json:"seq,omitempty"`
}

// Client → server.
const (
	OpHeartbeat   = "heartbeat"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// Server → client.
const (
	OpReady         = "ready"
	OpHeartbeatAck  = "heartbeat_ack"
	OpSubscribed    = "subscribed"
	OpUnsubscribed  = "unsubscribed"
	OpError         = "error"
	OpMessageCreate = "message_create"
	OpMessageUpdate = "message_update"
	OpMessageDelete = "message_delete"
)

const (
	topicPrefix          = "chat:"
	messagesSuffix       = ":messages"
	messagesUpdateSuffix = ":messages:update"
)

// MessagesTopic carries new messages of a channel or conversation.
func MessagesTopic(id string) string {
	return topicPrefix + id + messagesSuffix
}

// MessagesUpdateTopic carries edits and deletions of a channel or
// conversation.
func MessagesUpdateTopic(id string) string {
	return topicPrefix + id + messagesUpdateSuffix
}

// ParseTopic returns the channel or conversation id of a chat topic.
func ParseTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return "", false
	}

	var id string
	switch {
	case strings.HasSuffix(rest, messagesUpdateSuffix):
		id = strings.TrimSuffix(rest, messagesUpdateSuffix)
	case strings.HasSuffix(rest, messagesSuffix):
		id = strings.TrimSuffix(rest, messagesSuffix)
	default:
		return "", false
	}

	if id == "" || strings.Contains(id, ":") {
		return "", false
	}
	return id, true
}
