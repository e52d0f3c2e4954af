package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ChannelType is the media type of a channel.
type ChannelType string

const (
	ChannelTypeText  ChannelType = "TEXT"
	ChannelTypeAudio ChannelType = "AUDIO"
	ChannelTypeVideo ChannelType = "VIDEO"
)

// DefaultChannelName is the TEXT channel every server is created with.
// It can be neither renamed nor deleted.
const DefaultChannelName = "general"

const maxChannelNameLength = 100

func (t ChannelType) Valid() bool {
	switch t {
	case ChannelTypeText, ChannelTypeAudio, ChannelTypeVideo:
		return true
	}
	return false
}

// IsMedia reports whether the channel carries a LiveKit room.
func (t ChannelType) IsMedia() bool {
	return t == ChannelTypeAudio || t == ChannelTypeVideo
}

// Channel is a named sub-space of a server.
type Channel struct {
	ID        string      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Type      ChannelType `json:"type" db:"type"`
	ProfileID string      `json:"profile_id" db:"profile_id"`
	ServerID  string      `json:"server_id" db:"server_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// IsDefault reports whether c is the server's protected "general" channel.
func (c *Channel) IsDefault() bool {
	return IsDefaultChannelName(c.Name)
}

// IsDefaultChannelName compares case-insensitively after NFKC normalization,
// so "General" or a full-width "ｇｅｎｅｒａｌ" cannot impersonate the default
// channel.
func IsDefaultChannelName(name string) bool {
	folded := cases.Fold().String(norm.NFKC.String(strings.TrimSpace(name)))
	return folded == DefaultChannelName
}

// CreateChannelRequest creates a channel; Type defaults to TEXT.
type CreateChannelRequest struct {
	Name string      `json:"name"`
	Type ChannelType `json:"type"`
}

func (r *CreateChannelRequest) Validate() error {
	return validateChannelFields(&r.Name, &r.Type)
}

// UpdateChannelRequest renames a channel or changes its type.
type UpdateChannelRequest struct {
	Name string      `json:"name"`
	Type ChannelType `json:"type"`
}

func (r *UpdateChannelRequest) Validate() error {
	return validateChannelFields(&r.Name, &r.Type)
}

func validateChannelFields(name *string, typ *ChannelType) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return fmt.Errorf("channel name is required")
	}
	if utf8.RuneCountInString(*name) > maxChannelNameLength {
		return fmt.Errorf("channel name must be at most %d characters", maxChannelNameLength)
	}
	if IsDefaultChannelName(*name) {
		return fmt.Errorf("channel name cannot be %q", DefaultChannelName)
	}

	*typ = ChannelType(strings.ToUpper(strings.TrimSpace(string(*typ))))
	if *typ == "" {
		*typ = ChannelTypeText
	}
	if !typ.Valid() {
		return fmt.Errorf("channel type must be TEXT, AUDIO or VIDEO")
	}
	return nil
}
