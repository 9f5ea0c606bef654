package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls who may read an event.
type Visibility string

const (
	// VisibilityPublic events are readable without a calendar membership.
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// IsValid checks if the visibility is known
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate:
		return true
	default:
		return false
	}
}

// MaxEventDuration bounds EndTime - StartTime.
const MaxEventDuration = 366 * 24 * time.Hour

type Event struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CalendarID  uuid.UUID  `json:"calendar_id" db:"calendar_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Location    string     `json:"location" db:"location"`
	Type        string     `json:"type" db:"type"`
	Visibility  Visibility `json:"visibility" db:"visibility"`
	StartTime   time.Time  `json:"start_time" db:"start_time"`
	EndTime     time.Time  `json:"end_time" db:"end_time"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// EventFields are the mutable fields of an event.
type EventFields struct {
	Name        string
	Description string
	Location    string
	Type        string
	Visibility  Visibility
	StartTime   time.Time
	EndTime     time.Time
}

// Apply overwrites the mutable fields of e.
func (f EventFields) Apply(e *Event) {
	e.Name = f.Name
	e.Description = f.Description
	e.Location = f.Location
	e.Type = f.Type
	e.Visibility = f.Visibility
	e.StartTime = f.StartTime.UTC()
	e.EndTime = f.EndTime.UTC()
}

// EventWithStatus is an event as seen by one user.
type EventWithStatus struct {
	Event
	Status AttendanceStatus `json:"status"`
}
