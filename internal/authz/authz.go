// Package authz decides what a calendar membership allows. It reads nothing
// from the store; callers look the membership up first.
package authz

import (
	"errors"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/samber/mo"
)

// Denial reasons. All of them are reported to clients as Forbidden; they only
// differ in logs.
var (
	ErrNoRelation       = errors.New("user has no relation with the calendar")
	ErrNotConfirmed     = errors.New("calendar membership is not confirmed")
	ErrInsufficientRole = errors.New("calendar role does not allow this action")
)

// Permission is a capability on a calendar.
type Permission int

const (
	PermView Permission = iota
	PermManageEvents
	PermAdmin
)

func (p Permission) String() string {
	switch p {
	case PermView:
		return "view"
	case PermManageEvents:
		return "manage_events"
	case PermAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Check returns nil when m grants p, or the reason it does not.
func Check(m mo.Option[models.Membership], p Permission) error {
	membership, ok := m.Get()
	if !ok {
		return ErrNoRelation
	}
	if !membership.Confirmed {
		return ErrNotConfirmed
	}

	switch p {
	case PermView:
		return nil
	case PermManageEvents:
		switch membership.Role {
		case models.RoleAdmin, models.RoleActor:
			return nil
		case models.RoleOutsider:
			return ErrInsufficientRole
		default:
			return ErrInsufficientRole
		}
	case PermAdmin:
		switch membership.Role {
		case models.RoleAdmin:
			return nil
		case models.RoleActor, models.RoleOutsider:
			return ErrInsufficientRole
		default:
			return ErrInsufficientRole
		}
	default:
		return ErrInsufficientRole
	}
}

// CanView is true for any confirmed member.
func CanView(m mo.Option[models.Membership]) bool {
	return Check(m, PermView) == nil
}

// CanManageEvents is true for confirmed admins and actors.
func CanManageEvents(m mo.Option[models.Membership]) bool {
	return Check(m, PermManageEvents) == nil
}

// IsAdmin is true for confirmed admins.
func IsAdmin(m mo.Option[models.Membership]) bool {
	return Check(m, PermAdmin) == nil
}

// CheckEventRead decides read access to a single event. Public events skip the
// membership check, and so does an attendee reading the event they were invited to.
func CheckEventRead(event *models.Event, m mo.Option[models.Membership], isAttendee bool) error {
	if event.Visibility == models.VisibilityPublic || isAttendee {
		return nil
	}
	return Check(m, PermView)
}
