package repository

import (
	"errors"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/mattn/go-sqlite3"
)

var (
	// Calendar errors
	// ErrCalendarNotFound is returned when a calendar is not found
	ErrCalendarNotFound = errors.New("calendar not found")

	// Membership errors
	// ErrMembershipNotFound is returned when a user has no relation with a calendar
	ErrMembershipNotFound = errors.New("membership not found")
	// ErrDuplicateMembership is returned when a user already has a relation with a calendar
	ErrDuplicateMembership = errors.New("user already has a relation with this calendar")

	// Event errors
	// ErrEventNotFound is returned when an event is not found
	ErrEventNotFound = errors.New("event not found")

	// Attendance errors
	// ErrAttendanceNotFound is returned when a user is not listed as an attendee
	ErrAttendanceNotFound = errors.New("attendance not found")
	// ErrDuplicateAttendance is returned when a user is already listed as an attendee
	ErrDuplicateAttendance = errors.New("user is already an attendee of this event")

	// User errors
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when the pseudo or email is already taken
	ErrDuplicateUser = errors.New("pseudo or email already exists")

	// Group errors
	// ErrGroupNotFound is returned when a group is not found
	ErrGroupNotFound = errors.New("group not found")
)

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Classify maps repository sentinels onto the apperr taxonomy. Errors it does
// not recognise are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case apperr.KindOf(err) != apperr.KindUnknown:
		return err
	case errors.Is(err, ErrCalendarNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "Calendar not found")
	case errors.Is(err, ErrEventNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "Event not found")
	case errors.Is(err, ErrUserNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "User not found")
	case errors.Is(err, ErrMembershipNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "Membership not found")
	case errors.Is(err, ErrAttendanceNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "Attendance not found")
	case errors.Is(err, ErrGroupNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "Group not found")
	case errors.Is(err, ErrDuplicateMembership):
		return apperr.Wrap(apperr.KindConflict, err, "User already has a relation with this calendar")
	case errors.Is(err, ErrDuplicateAttendance):
		return apperr.Wrap(apperr.KindConflict, err, "User is already an attendee of this event")
	case errors.Is(err, ErrDuplicateUser):
		return apperr.Wrap(apperr.KindConflict, err, "Pseudo or email already exists")
	default:
		return err
	}
}
