package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the state of a user's invitation to an event.
type AttendanceStatus string

// Possible attendance status values
const (
	AttendanceInvited  AttendanceStatus = "invited"
	AttendanceAccepted AttendanceStatus = "accepted"
	AttendanceDeclined AttendanceStatus = "declined"
)

// IsValid checks if the attendance status is valid
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendanceInvited, AttendanceAccepted, AttendanceDeclined:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether s may move to next. Only an open
// invitation can be answered.
func (s AttendanceStatus) CanTransitionTo(next AttendanceStatus) bool {
	switch s {
	case AttendanceInvited:
		return next == AttendanceAccepted || next == AttendanceDeclined
	case AttendanceAccepted, AttendanceDeclined:
		return false
	default:
		return false
	}
}

// String returns the string representation of the status
func (s AttendanceStatus) String() string {
	return string(s)
}

// Attendance is one attendee of an event.
type Attendance struct {
	EventID     uuid.UUID        `json:"event_id" db:"event_id"`
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	Pseudo      string           `json:"pseudo" db:"pseudo"`
	Status      AttendanceStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty" db:"responded_at"`
}
