package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

// Board roles
const (
	RoleAdmin  Role = "admin"  // manages members, lists and the board itself
	RoleMember Role = "member" // works with lists and tasks
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Membership is the normalized member reference: a user id and a role.
// Profiles are obtained explicitly through membership expansion.
type Membership struct {
	BoardID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	Role      Role      `gorm:"not null;check:role IN ('admin', 'member')" json:"role"`
	Position  int       `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (Membership) TableName() string {
	return "board_members"
}

// MemberProfile is an expanded membership.
type MemberProfile struct {
	UserID uuid.UUID `json:"userId"`
	Role   Role      `json:"role"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}

// CountAdmins returns how many of the memberships carry the admin role.
func CountAdmins(members []Membership) int {
	n := 0
	for _, m := range members {
		if m.Role == RoleAdmin {
			n++
		}
	}
	return n
}
