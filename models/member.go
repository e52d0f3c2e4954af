package models

import (
	"fmt"
	"time"
)

// MemberRole is the role a profile holds inside one server.
type MemberRole string

const (
	RoleAdmin     MemberRole = "ADMIN"
	RoleModerator MemberRole = "MODERATOR"
	RoleGuest     MemberRole = "GUEST"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleGuest:
		return true
	}
	return false
}

// CanModerate reports whether the role may manage channels and other
// members' messages.
func (r MemberRole) CanModerate() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Member binds a Profile to a Server with a Role.
type Member struct {
	ID        string     `json:"id" db:"id"`
	Role      MemberRole `json:"role" db:"role"`
	ProfileID string     `json:"profile_id" db:"profile_id"`
	ServerID  string     `json:"server_id" db:"server_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	Profile   *Profile   `json:"profile,omitempty" db:"-"`
}

// UpdateMemberRoleRequest changes a member's role.
type UpdateMemberRoleRequest struct {
	Role MemberRole `json:"role"`
}

func (r *UpdateMemberRoleRequest) Validate() error {
	if !r.Role.Valid() {
		return fmt.Errorf("role must be one of ADMIN, MODERATOR, GUEST")
	}
	return nil
}
