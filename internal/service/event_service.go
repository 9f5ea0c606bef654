package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/agenda-distribuida/calendar-service/internal/authz"
	"github.com/agenda-distribuida/calendar-service/internal/events"
	"github.com/agenda-distribuida/calendar-service/internal/membership"
	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/preferences"
	"github.com/agenda-distribuida/calendar-service/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventService defines the interface for event-related operations
type EventService interface {
	CreateEvent(ctx context.Context, requesterID, calendarID uuid.UUID, fields models.EventFields, tzOffsetMinutes int) (*models.Event, error)
	GetEvent(ctx context.Context, requesterID, eventID uuid.UUID) (*models.EventWithStatus, error)
	GetEventAttendees(ctx context.Context, requesterID, eventID uuid.UUID) ([]*models.Attendance, error)
	EditEvent(ctx context.Context, requesterID, eventID uuid.UUID, fields models.EventFields) (*models.Event, error)
	DeleteEvent(ctx context.Context, requesterID, eventID uuid.UUID) error

	// Attendance operations
	InviteAttendees(ctx context.Context, requesterID, eventID uuid.UUID, pseudos []string) ([]*models.Attendance, error)
	RespondToInvitation(ctx context.Context, requesterID, eventID uuid.UUID, status models.AttendanceStatus) (*models.Attendance, error)
}

// NewEventService creates a new instance of EventService
func NewEventService(store *repository.Store, registry *membership.Registry, publisher *events.Publisher, log zerolog.Logger) EventService {
	return &eventService{
		store:     store,
		registry:  registry,
		publisher: publisher,
		log:       log,
	}
}

// eventService implements the EventService interface
type eventService struct {
	store     *repository.Store
	registry  *membership.Registry
	publisher *events.Publisher
	log       zerolog.Logger
}

// CreateEvent persists an event and counts it in the calendar's preference
// matrix in the same transaction.
func (s *eventService) CreateEvent(ctx context.Context, requesterID, calendarID uuid.UUID, fields models.EventFields, tzOffsetMinutes int) (*models.Event, error) {
	event := &models.Event{CalendarID: calendarID}
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		calendar, err := loadCalendar(ctx, tx, calendarID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermManageEvents); err != nil {
			return err
		}
		if err := validateEventFields(calendar, &fields); err != nil {
			return err
		}
		if err := validateOffset(tzOffsetMinutes); err != nil {
			return err
		}

		fields.Apply(event)
		if err := tx.Events.Create(ctx, event); err != nil {
			return err
		}

		if err := calendar.TimeslotPreferences.RecordEvent(event.Type, event.StartTime, event.EndTime, tzOffsetMinutes); err != nil {
			if errors.Is(err, preferences.ErrInvalidEventType) {
				return apperr.Wrap(apperr.KindInvalidInput, err, "event type %q is not configured for this calendar", event.Type)
			}
			return err
		}
		return repository.Classify(tx.Calendars.Update(ctx, calendar))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("calendar_id", calendarID.String()).
		Str("type", event.Type).
		Msg("Event created")
	s.publisher.PublishEventCreated(ctx, calendarID, event.ID, requesterID)
	return event, nil
}

// GetEvent returns an event with the requester's attendance status. Requesters
// without an attendance row see the event as invited.
func (s *eventService) GetEvent(ctx context.Context, requesterID, eventID uuid.UUID) (*models.EventWithStatus, error) {
	result := &models.EventWithStatus{Status: models.AttendanceInvited}
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		event, attendance, err := s.readableEvent(ctx, tx, requesterID, eventID)
		if err != nil {
			return err
		}
		result.Event = *event
		if attendance != nil {
			result.Status = attendance.Status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetEventAttendees lists the attendees of an event
func (s *eventService) GetEventAttendees(ctx context.Context, requesterID, eventID uuid.UUID) ([]*models.Attendance, error) {
	var attendees []*models.Attendance
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, _, err := s.readableEvent(ctx, tx, requesterID, eventID); err != nil {
			return err
		}
		var err error
		attendees, err = tx.Attendees.ListByEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

// EditEvent overwrites the mutable fields of an event. The preference matrix
// keeps the placement recorded at creation.
func (s *eventService) EditEvent(ctx context.Context, requesterID, eventID uuid.UUID, fields models.EventFields) (*models.Event, error) {
	var event *models.Event
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		var err error
		if event, err = loadEvent(ctx, tx, eventID); err != nil {
			return err
		}
		calendar, err := loadCalendar(ctx, tx, event.CalendarID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, event.CalendarID, requesterID, authz.PermManageEvents); err != nil {
			return err
		}
		if err := validateEventFields(calendar, &fields); err != nil {
			return err
		}

		fields.Apply(event)
		return repository.Classify(tx.Events.Update(ctx, event))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("event_id", eventID.String()).Msg("Event updated")
	s.publisher.PublishEventUpdated(ctx, event.CalendarID, eventID, requesterID)
	return event, nil
}

// DeleteEvent removes an event and its attendees
func (s *eventService) DeleteEvent(ctx context.Context, requesterID, eventID uuid.UUID) error {
	var calendarID uuid.UUID
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		event, err := loadEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		calendarID = event.CalendarID
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermManageEvents); err != nil {
			return err
		}
		if err := tx.Attendees.DeleteByEvent(ctx, eventID); err != nil {
			return err
		}
		return repository.Classify(tx.Events.Delete(ctx, eventID))
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("event_id", eventID.String()).Msg("Event deleted")
	s.publisher.PublishEventDeleted(ctx, calendarID, eventID, requesterID)
	return nil
}

// InviteAttendees invites users by pseudo. Every pseudo must resolve and none
// may already be an attendee; otherwise nothing is written. Invitees without a
// relation to the calendar join it as unconfirmed outsiders. The returned list
// holds both previous and new attendees.
func (s *eventService) InviteAttendees(ctx context.Context, requesterID, eventID uuid.UUID, pseudos []string) ([]*models.Attendance, error) {
	if len(pseudos) == 0 {
		return nil, apperr.InvalidInput("at least one user is required")
	}

	var (
		attendees []*models.Attendance
		invited   []uuid.UUID
		calendar  uuid.UUID
	)
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		event, err := loadEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		calendar = event.CalendarID
		if _, err := authorize(ctx, tx, s.registry, calendar, requesterID, authz.PermManageEvents); err != nil {
			return err
		}

		users, err := resolvePseudos(ctx, tx, pseudos)
		if err != nil {
			return err
		}

		existing, err := tx.Attendees.ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		listed := make(map[uuid.UUID]bool, len(existing)+len(users))
		for _, a := range existing {
			listed[a.UserID] = true
		}
		for _, u := range users {
			if listed[u.ID] {
				return apperr.Conflict("user %s is already invited to this event", u.Pseudo)
			}
			listed[u.ID] = true
		}

		var outsiders []models.MemberAssignment
		for _, u := range users {
			if err := tx.Attendees.Insert(ctx, &models.Attendance{
				EventID: eventID,
				UserID:  u.ID,
				Status:  models.AttendanceInvited,
			}); err != nil {
				return repository.Classify(err)
			}

			relation, err := s.registry.FindRelation(ctx, tx, calendar, u.ID)
			if err != nil {
				return err
			}
			if relation.IsAbsent() {
				outsiders = append(outsiders, models.MemberAssignment{UserID: u.ID, Role: models.RoleOutsider})
			}
			invited = append(invited, u.ID)
		}
		if len(outsiders) > 0 {
			if _, err := s.registry.AddMembers(ctx, tx, calendar, outsiders); err != nil {
				return err
			}
		}

		attendees, err = tx.Attendees.ListByEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("event_id", eventID.String()).
		Int("invited", len(invited)).
		Msg("Attendees invited")
	s.publisher.PublishAttendeesInvited(ctx, eventID, invited, requesterID)
	return attendees, nil
}

// RespondToInvitation records the requester's answer to an open invitation
func (s *eventService) RespondToInvitation(ctx context.Context, requesterID, eventID uuid.UUID, status models.AttendanceStatus) (*models.Attendance, error) {
	if !status.IsValid() || status == models.AttendanceInvited {
		return nil, apperr.InvalidInput("status must be %q or %q", models.AttendanceAccepted, models.AttendanceDeclined)
	}

	var attendance *models.Attendance
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := loadEvent(ctx, tx, eventID); err != nil {
			return err
		}
		current, err := tx.Attendees.Get(ctx, eventID, requesterID)
		if err != nil {
			if errors.Is(err, repository.ErrAttendanceNotFound) {
				return apperr.Wrap(apperr.KindNotFound, err, "You are not invited to this event")
			}
			return err
		}
		if !current.Status.CanTransitionTo(status) {
			return apperr.Conflict("invitation already answered with %q", current.Status)
		}
		if err := tx.Attendees.UpdateStatus(ctx, eventID, requesterID, status); err != nil {
			return repository.Classify(err)
		}
		attendance, err = tx.Attendees.Get(ctx, eventID, requesterID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishAttendanceUpdated(ctx, eventID, requesterID, status.String())
	return attendance, nil
}

// readableEvent loads an event the requester may read, along with the
// requester's attendance row when there is one.
func (s *eventService) readableEvent(ctx context.Context, tx *repository.Tx, requesterID, eventID uuid.UUID) (*models.Event, *models.Attendance, error) {
	event, err := loadEvent(ctx, tx, eventID)
	if err != nil {
		return nil, nil, err
	}

	attendance, err := tx.Attendees.Get(ctx, eventID, requesterID)
	if err != nil && !errors.Is(err, repository.ErrAttendanceNotFound) {
		return nil, nil, err
	}

	m, err := s.registry.FindRelation(ctx, tx, event.CalendarID, requesterID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.CheckEventRead(event, m, attendance != nil); err != nil {
		return nil, nil, apperr.Forbidden(err, "You are not allowed to view this event")
	}
	return event, attendance, nil
}

// resolvePseudos maps every pseudo to a user, failing on the first one that
// does not resolve.
func resolvePseudos(ctx context.Context, tx *repository.Tx, pseudos []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(pseudos))
	for _, raw := range pseudos {
		pseudo := strings.TrimSpace(raw)
		if !models.ValidPseudo(pseudo) {
			return nil, apperr.NotFound("user %s not found", pseudo)
		}
		user, err := tx.Users.FindByPseudo(ctx, pseudo)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, apperr.Wrap(apperr.KindNotFound, err, "user %s not found", pseudo)
			}
			return nil, fmt.Errorf("failed to resolve pseudo %q: %w", pseudo, err)
		}
		users = append(users, user)
	}
	return users, nil
}
