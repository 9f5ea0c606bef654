package server

import (
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/google/uuid"
)

type memberRequest struct {
	UserID uuid.UUID           `json:"user_id" validate:"required"`
	Role   models.CalendarRole `json:"role" validate:"required,oneof=admin actor outsider"`
}

type createCalendarRequest struct {
	Name   string          `json:"name" validate:"required,max=256"`
	Owners []memberRequest `json:"owners" validate:"omitempty,dive"`
}

type editCalendarRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

type addMembersRequest struct {
	Members []memberRequest `json:"members" validate:"required,min=1,dive"`
}

type eventRequest struct {
	Name           string            `json:"name" validate:"required,max=256"`
	Description    string            `json:"description" validate:"max=4096"`
	Location       string            `json:"location" validate:"max=256"`
	Type           string            `json:"type" validate:"required"`
	Visibility     models.Visibility `json:"visibility" validate:"omitempty,oneof=public private"`
	StartTime      time.Time         `json:"start_time" validate:"required"`
	EndTime        time.Time         `json:"end_time" validate:"required"`
	TimezoneOffset int               `json:"timezone_offset" validate:"min=-840,max=840"`
}

func (r eventRequest) fields() models.EventFields {
	return models.EventFields{
		Name:        r.Name,
		Description: r.Description,
		Location:    r.Location,
		Type:        r.Type,
		Visibility:  r.Visibility,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
	}
}

type inviteRequest struct {
	Users []string `json:"users" validate:"required,min=1,dive,required"`
}

type statusRequest struct {
	Status models.AttendanceStatus `json:"status" validate:"required,oneof=accepted declined"`
}

func assignments(members []memberRequest) []models.MemberAssignment {
	out := make([]models.MemberAssignment, 0, len(members))
	for _, m := range members {
		out = append(out, models.MemberAssignment{UserID: m.UserID, Role: m.Role})
	}
	return out
}
