package models

import (
	"fmt"
	"strings"
	"time"
)

// Conversation is an unordered pair of members of the same server.
type Conversation struct {
	ID          string    `json:"id" db:"id"`
	MemberOneID string    `json:"member_one_id" db:"member_one_id"`
	MemberTwoID string    `json:"member_two_id" db:"member_two_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	MemberOne   *Member   `json:"member_one,omitempty" db:"-"`
	MemberTwo   *Member   `json:"member_two,omitempty" db:"-"`
}

// HasMember reports whether memberID is one side of the conversation.
func (c *Conversation) HasMember(memberID string) bool {
	return c.MemberOneID == memberID || c.MemberTwoID == memberID
}

// DirectMessage is a message inside a conversation. MemberID is the sender.
type DirectMessage struct {
	ID             string    `json:"id" db:"id"`
	Content        string    `json:"content" db:"content"`
	FileURL        *string   `json:"file_url" db:"file_url"`
	MemberID       string    `json:"member_id" db:"member_id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Deleted        bool      `json:"deleted" db:"deleted"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	Member         *Member   `json:"member,omitempty" db:"-"`
}

// CreateConversationRequest opens (or reopens) a conversation with another
// member of the same server.
type CreateConversationRequest struct {
	MemberID string `json:"memberId"`
}

func (r *CreateConversationRequest) Validate() error {
	r.MemberID = strings.TrimSpace(r.MemberID)
	if r.MemberID == "" {
		return fmt.Errorf("memberId is required")
	}
	return nil
}
