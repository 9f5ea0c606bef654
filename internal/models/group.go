package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is an aggregate that points at a calendar without owning it.
type Group struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	CalendarID uuid.UUID `json:"calendar_id" db:"calendar_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
