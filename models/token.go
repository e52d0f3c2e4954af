package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of the identity provider's bearer token.
// The subject is the provider's user id; the profile fields are optional
// and only used when the profile is first created or refreshed.
type TokenClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the fields a profile is built from.
func (c *TokenClaims) Identity() Identity {
	return Identity{
		UserID:   c.Subject,
		Name:     c.Name,
		Email:    c.Email,
		ImageURL: c.Picture,
	}
}
