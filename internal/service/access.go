package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/agenda-distribuida/calendar-service/internal/authz"
	"github.com/agenda-distribuida/calendar-service/internal/membership"
	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/preferences"
	"github.com/agenda-distribuida/calendar-service/internal/repository"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// loadCalendar fetches a calendar, reporting NotFound when it is absent.
func loadCalendar(ctx context.Context, tx *repository.Tx, id uuid.UUID) (*models.Calendar, error) {
	calendar, err := tx.Calendars.GetByID(ctx, id)
	if err != nil {
		return nil, repository.Classify(err)
	}
	return calendar, nil
}

// loadEvent fetches an event, reporting NotFound when it is absent.
func loadEvent(ctx context.Context, tx *repository.Tx, id uuid.UUID) (*models.Event, error) {
	event, err := tx.Events.GetByID(ctx, id)
	if err != nil {
		return nil, repository.Classify(err)
	}
	return event, nil
}

// authorize looks up the requester's membership and checks it against p.
func authorize(ctx context.Context, tx *repository.Tx, registry *membership.Registry, calendarID, userID uuid.UUID, p authz.Permission) (mo.Option[models.Membership], error) {
	m, err := registry.FindRelation(ctx, tx, calendarID, userID)
	if err != nil {
		return m, err
	}
	if err := authz.Check(m, p); err != nil {
		return m, apperr.Forbidden(err, "You are not allowed to %s on this calendar", verb(p))
	}
	return m, nil
}

func verb(p authz.Permission) string {
	switch p {
	case authz.PermView:
		return "view"
	case authz.PermManageEvents:
		return "manage events"
	case authz.PermAdmin:
		return "administer"
	default:
		return "act"
	}
}

// validateCalendarName trims name and enforces its length bounds.
func validateCalendarName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.InvalidInput("calendar name is required")
	}
	if utf8.RuneCountInString(name) > models.MaxCalendarNameLength {
		return "", apperr.InvalidInput("calendar name must be at most %d characters", models.MaxCalendarNameLength)
	}
	return name, nil
}

// validateEventFields checks the fields of an event against calendar.
func validateEventFields(calendar *models.Calendar, f *models.EventFields) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return apperr.InvalidInput("event name is required")
	}
	if f.Visibility == "" {
		f.Visibility = models.VisibilityPrivate
	}
	if !f.Visibility.IsValid() {
		return apperr.InvalidInput("invalid visibility %q", f.Visibility)
	}
	if f.StartTime.IsZero() || f.EndTime.IsZero() {
		return apperr.InvalidInput("start_time and end_time are required")
	}
	if f.EndTime.Before(f.StartTime) {
		return apperr.InvalidInput("end_time must not be before start_time")
	}
	if f.EndTime.Sub(f.StartTime) > models.MaxEventDuration {
		return apperr.InvalidInput("event must not last longer than %d days", int(models.MaxEventDuration/(24*time.Hour)))
	}
	if !calendar.TimeslotPreferences.Has(f.Type) {
		return apperr.InvalidInput("event type %q is not configured for this calendar", f.Type)
	}
	return nil
}

// validateOffset checks a timezone offset in minutes east of UTC.
func validateOffset(tzOffsetMinutes int) error {
	if tzOffsetMinutes < -preferences.MaxOffsetMinutes || tzOffsetMinutes > preferences.MaxOffsetMinutes {
		return apperr.InvalidInput("timezone_offset must be between %d and %d minutes", -preferences.MaxOffsetMinutes, preferences.MaxOffsetMinutes)
	}
	return nil
}
