package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MessagesBatch is the page size of message lists.
const MessagesBatch = 10

// DeletedMessageContent replaces the content of a soft-deleted message.
const DeletedMessageContent = "This message has been deleted."

const maxMessageLength = 4000

// Message is a channel message. Member (with Profile) is filled by reads
// that join the author.
type Message struct {
	ID        string    `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	FileURL   *string   `json:"file_url" db:"file_url"`
	MemberID  string    `json:"member_id" db:"member_id"`
	ChannelID string    `json:"channel_id" db:"channel_id"`
	Deleted   bool      `json:"deleted" db:"deleted"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Member    *Member   `json:"member,omitempty" db:"-"`
}

// CreateMessageRequest posts a message; FileURL points at an earlier upload.
type CreateMessageRequest struct {
	Content string `json:"content"`
	FileURL string `json:"fileUrl"`
}

func (r *CreateMessageRequest) Validate() error {
	r.FileURL = strings.TrimSpace(r.FileURL)
	return validateContent(&r.Content)
}

// UpdateMessageRequest edits the content of a message.
type UpdateMessageRequest struct {
	Content string `json:"content"`
}

func (r *UpdateMessageRequest) Validate() error {
	return validateContent(&r.Content)
}

func validateContent(content *string) error {
	*content = strings.TrimSpace(*content)
	if *content == "" {
		return fmt.Errorf("content missing")
	}
	if utf8.RuneCountInString(*content) > maxMessageLength {
		return fmt.Errorf("content must be at most %d characters", maxMessageLength)
	}
	return nil
}
