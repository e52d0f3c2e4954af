package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const maxServerNameLength = 100

// Server is a community owned by a profile.
type Server struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	ImageURL   string    `json:"image_url" db:"image_url"`
	InviteCode string    `json:"invite_code" db:"invite_code"`
	ProfileID  string    `json:"profile_id" db:"profile_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// IsOwner reports whether profileID created the server.
func (s *Server) IsOwner(profileID string) bool {
	return s.ProfileID == profileID
}

// ServerWithMembers is a server with its members (and their profiles)
// ordered ADMIN, MODERATOR, GUEST. Channels is filled only by the detail view.
type ServerWithMembers struct {
	Server
	Channels []Channel `json:"channels,omitempty"`
	Members  []Member  `json:"members"`
}

// ServerWithRole is one entry of a profile's server list.
type ServerWithRole struct {
	Server
	Role MemberRole `json:"role" db:"role"`
}

// CreateServerResult is everything a new server starts with.
type CreateServerResult struct {
	Server         *Server  `json:"server"`
	DefaultChannel *Channel `json:"defaultChannel"`
	Member         *Member  `json:"member"`
}

// CreateServerRequest creates a server.
type CreateServerRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

func (r *CreateServerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.ImageURL = strings.TrimSpace(r.ImageURL)

	if r.Name == "" || r.ImageURL == "" {
		return fmt.Errorf("name and imageUrl are required")
	}
	return validateServerName(r.Name)
}

// UpdateServerRequest renames a server. An empty ImageURL keeps the current
// image.
type UpdateServerRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

func (r *UpdateServerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.ImageURL = strings.TrimSpace(r.ImageURL)

	if r.Name == "" {
		return fmt.Errorf("server name is required")
	}
	return validateServerName(r.Name)
}

func validateServerName(name string) error {
	if utf8.RuneCountInString(name) > maxServerNameLength {
		return fmt.Errorf("server name must be at most %d characters", maxServerNameLength)
	}
	return nil
}
