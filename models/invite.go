package models

import (
	"fmt"
	"net/mail"
	"strings"
)

// InvitePreview is what an invite link shows before joining.
type InvitePreview struct {
	ServerID    string `json:"server_id" db:"id"`
	ServerName  string `json:"server_name" db:"name"`
	ImageURL    string `json:"image_url" db:"image_url"`
	MemberCount int    `json:"member_count" db:"member_count"`
}

// InviteEmailRequest asks for the invite link to be mailed to Email.
type InviteEmailRequest struct {
	Email string `json:"email"`
}

func (r *InviteEmailRequest) Validate() error {
	addr, err := mail.ParseAddress(strings.TrimSpace(r.Email))
	if err != nil {
		return fmt.Errorf("invalid email address")
	}
	r.Email = addr.Address
	return nil
}
