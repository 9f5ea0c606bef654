package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarRole is the role a user holds on a calendar.
type CalendarRole string

const (
	RoleAdmin    CalendarRole = "admin"
	RoleActor    CalendarRole = "actor"
	RoleOutsider CalendarRole = "outsider"
)

// IsValid checks if the role is one of the known roles
func (r CalendarRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleActor, RoleOutsider:
		return true
	default:
		return false
	}
}

func (r CalendarRole) String() string {
	return string(r)
}

// Membership relates a user to a calendar. Only confirmed rows count as owners.
type Membership struct {
	CalendarID uuid.UUID    `json:"calendar_id" db:"calendar_id"`
	UserID     uuid.UUID    `json:"user_id" db:"user_id"`
	Role       CalendarRole `json:"role" db:"role"`
	Confirmed  bool         `json:"confirmed" db:"confirmed"`
	JoinedAt   time.Time    `json:"joined_at" db:"joined_at"`
}

// MemberAssignment is a requested membership before it is persisted.
type MemberAssignment struct {
	UserID    uuid.UUID
	Role      CalendarRole
	Confirmed bool
}

// MemberView is a membership joined with the member's pseudo.
type MemberView struct {
	Membership
	Pseudo string `json:"pseudo" db:"pseudo"`
}
