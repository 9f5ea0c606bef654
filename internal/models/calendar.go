package models

import (
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/preferences"
	"github.com/google/uuid"
)

// MaxCalendarNameLength bounds Calendar.Name.
const MaxCalendarNameLength = 256

// Calendar is owned collectively by its confirmed members.
type Calendar struct {
	ID                  uuid.UUID          `json:"id" db:"id"`
	Name                string             `json:"name" db:"name"`
	NbOwners            int                `json:"nb_owners" db:"nb_owners"`
	TimeslotPreferences preferences.Matrix `json:"-" db:"timeslot_preferences"`
	SyncToken           *string            `json:"-" db:"sync_token"`
	CreatedAt           time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" db:"updated_at"`
}

// CalendarWithOwners is a calendar together with its membership rows.
type CalendarWithOwners struct {
	Calendar
	Owners []*MemberView `json:"owners"`
}

// UserCalendar is one entry of a user's calendar list.
type UserCalendar struct {
	CalendarID   uuid.UUID    `json:"calendar_id" db:"calendar_id"`
	CalendarName string       `json:"calendar_name" db:"calendar_name"`
	Role         CalendarRole `json:"role" db:"role"`
	Confirmed    bool         `json:"confirmed" db:"confirmed"`
}
