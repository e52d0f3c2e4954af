package models

// RoomToken is a LiveKit access token for one AUDIO or VIDEO channel.
// Media flows through LiveKit; this backend only signs the join grant.
type RoomToken struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ChannelID string `json:"channel_id"`
}
