package models

import (
	"errors"
	"strings"
	"time"
)

// Profile is the local identity of a user authenticated by the external
// identity provider. UserID is the provider's subject.
type Profile struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Identity is what a verified bearer token says about the caller.
type Identity struct {
	UserID   string
	Name     string
	Email    string
	ImageURL string
}

// Normalize trims the claims and fills a display name when the provider
// sent none.
func (i *Identity) Normalize() error {
	i.UserID = strings.TrimSpace(i.UserID)
	i.Name = strings.TrimSpace(i.Name)
	i.Email = strings.TrimSpace(i.Email)
	i.ImageURL = strings.TrimSpace(i.ImageURL)

	if i.UserID == "" {
		return errors.New("token subject is missing")
	}
	if i.Name == "" {
		if at := strings.IndexByte(i.Email, '@'); at > 0 {
			i.Name = i.Email[:at]
		} else {
			i.Name = "user"
		}
	}
	return nil
}
