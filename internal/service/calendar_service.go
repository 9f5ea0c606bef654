package service

import (
	"context"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/agenda-distribuida/calendar-service/internal/authz"
	"github.com/agenda-distribuida/calendar-service/internal/events"
	"github.com/agenda-distribuida/calendar-service/internal/ics"
	"github.com/agenda-distribuida/calendar-service/internal/membership"
	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/preferences"
	"github.com/agenda-distribuida/calendar-service/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CalendarService defines the interface for calendar-related operations
type CalendarService interface {
	// Calendar operations
	CreateCalendar(ctx context.Context, name string, assignments []models.MemberAssignment, creatorID uuid.UUID) (*models.CalendarWithOwners, error)
	GetCalendarWithOwners(ctx context.Context, requesterID, calendarID uuid.UUID) (*models.CalendarWithOwners, error)
	EditCalendar(ctx context.Context, requesterID, calendarID uuid.UUID, name string) (*models.Calendar, error)
	DeleteCalendar(ctx context.Context, requesterID, calendarID uuid.UUID) error
	ListUserCalendars(ctx context.Context, userID uuid.UUID) ([]*models.UserCalendar, error)

	// Member operations
	AddMembers(ctx context.Context, requesterID, calendarID uuid.UUID, assignments []models.MemberAssignment) ([]models.Membership, error)
	ConfirmMembership(ctx context.Context, requesterID, calendarID uuid.UUID) (models.Membership, error)
	RemoveMember(ctx context.Context, requesterID, calendarID, userID uuid.UUID) (membership.Removal, error)

	// Read models
	ListEvents(ctx context.Context, requesterID, calendarID uuid.UUID) ([]*models.Event, error)
	GetPreferences(ctx context.Context, requesterID, calendarID uuid.UUID) (preferences.Matrix, error)
	ExportICS(ctx context.Context, requesterID, calendarID uuid.UUID) ([]byte, error)

	// Maintenance
	SweepOrphans(ctx context.Context) (int, error)
}

// NewCalendarService creates a new instance of CalendarService
func NewCalendarService(store *repository.Store, registry *membership.Registry, publisher *events.Publisher, eventTypes []string, log zerolog.Logger) CalendarService {
	return &calendarService{
		store:      store,
		registry:   registry,
		publisher:  publisher,
		eventTypes: append([]string(nil), eventTypes...),
		log:        log,
	}
}

// calendarService implements the CalendarService interface
type calendarService struct {
	store      *repository.Store
	registry   *membership.Registry
	publisher  *events.Publisher
	eventTypes []string
	log        zerolog.Logger
}

// CreateCalendar persists a calendar with a zeroed preference matrix and one
// membership per assignment. Only the creator's row is confirmed; the creator
// is added as admin when the assignments do not mention them.
func (s *calendarService) CreateCalendar(ctx context.Context, name string, assignments []models.MemberAssignment, creatorID uuid.UUID) (*models.CalendarWithOwners, error) {
	name, err := validateCalendarName(name)
	if err != nil {
		return nil, err
	}

	rows := make([]models.MemberAssignment, 0, len(assignments)+1)
	hasCreator := false
	for _, a := range assignments {
		a.Confirmed = a.UserID == creatorID
		hasCreator = hasCreator || a.Confirmed
		rows = append(rows, a)
	}
	if !hasCreator {
		rows = append([]models.MemberAssignment{{UserID: creatorID, Role: models.RoleAdmin, Confirmed: true}}, rows...)
	}

	result := &models.CalendarWithOwners{}
	err = s.store.Transaction(ctx, func(tx *repository.Tx) error {
		calendar := &models.Calendar{
			Name:                name,
			TimeslotPreferences: preferences.NewMatrix(s.eventTypes),
		}
		if err := tx.Calendars.Create(ctx, calendar); err != nil {
			return err
		}
		if _, err := s.registry.AddMembers(ctx, tx, calendar.ID, rows); err != nil {
			return err
		}

		owners, err := s.registry.ListMembers(ctx, tx, calendar.ID)
		if err != nil {
			return err
		}
		stored, err := loadCalendar(ctx, tx, calendar.ID)
		if err != nil {
			return err
		}
		result.Calendar = *stored
		result.Owners = owners
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("calendar_id", result.ID.String()).
		Str("created_by", creatorID.String()).
		Int("members", len(result.Owners)).
		Msg("Calendar created")
	s.publisher.PublishCalendarCreated(ctx, result.ID, result.Name, creatorID)
	return result, nil
}

// GetCalendarWithOwners returns a calendar and its members
func (s *calendarService) GetCalendarWithOwners(ctx context.Context, requesterID, calendarID uuid.UUID) (*models.CalendarWithOwners, error) {
	result := &models.CalendarWithOwners{}
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		calendar, err := loadCalendar(ctx, tx, calendarID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermView); err != nil {
			return err
		}
		owners, err := s.registry.ListMembers(ctx, tx, calendarID)
		if err != nil {
			return err
		}
		result.Calendar = *calendar
		result.Owners = owners
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EditCalendar renames a calendar
func (s *calendarService) EditCalendar(ctx context.Context, requesterID, calendarID uuid.UUID, name string) (*models.Calendar, error) {
	name, err := validateCalendarName(name)
	if err != nil {
		return nil, err
	}

	var calendar *models.Calendar
	err = s.store.Transaction(ctx, func(tx *repository.Tx) error {
		var err error
		if calendar, err = loadCalendar(ctx, tx, calendarID); err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermAdmin); err != nil {
			return err
		}
		calendar.Name = name
		return repository.Classify(tx.Calendars.Update(ctx, calendar))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("calendar_id", calendarID.String()).Msg("Calendar updated")
	s.publisher.PublishCalendarUpdated(ctx, calendarID, name, requesterID)
	return calendar, nil
}

// DeleteCalendar removes a calendar with its groups, events, attendees and memberships
func (s *calendarService) DeleteCalendar(ctx context.Context, requesterID, calendarID uuid.UUID) error {
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := loadCalendar(ctx, tx, calendarID); err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermAdmin); err != nil {
			return err
		}
		return repository.DeleteCalendarCascade(ctx, tx, calendarID)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("calendar_id", calendarID.String()).
		Str("deleted_by", requesterID.String()).
		Msg("Calendar deleted")
	s.publisher.PublishCalendarDeleted(ctx, calendarID, requesterID)
	return nil
}

// ListUserCalendars returns the calendars a user has a relation with
func (s *calendarService) ListUserCalendars(ctx context.Context, userID uuid.UUID) ([]*models.UserCalendar, error) {
	var calendars []*models.UserCalendar
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		var err error
		calendars, err = tx.Calendars.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return calendars, nil
}

// AddMembers adds unconfirmed members with explicit roles
func (s *calendarService) AddMembers(ctx context.Context, requesterID, calendarID uuid.UUID, assignments []models.MemberAssignment) ([]models.Membership, error) {
	if len(assignments) == 0 {
		return nil, apperr.InvalidInput("at least one member is required")
	}

	rows := make([]models.MemberAssignment, len(assignments))
	for i, a := range assignments {
		a.Confirmed = false
		rows[i] = a
	}

	var added []models.Membership
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := loadCalendar(ctx, tx, calendarID); err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermManageEvents); err != nil {
			return err
		}
		var err error
		added, err = s.registry.AddMembers(ctx, tx, calendarID, rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, m := range added {
		s.publisher.PublishMemberAdded(ctx, calendarID, m.UserID, m.Role.String(), requesterID)
	}
	s.log.Info().
		Str("calendar_id", calendarID.String()).
		Int("count", len(added)).
		Msg("Calendar members added")
	return added, nil
}

// ConfirmMembership accepts the requester's pending membership
func (s *calendarService) ConfirmMembership(ctx context.Context, requesterID, calendarID uuid.UUID) (models.Membership, error) {
	var confirmed models.Membership
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := loadCalendar(ctx, tx, calendarID); err != nil {
			return err
		}
		var err error
		confirmed, err = s.registry.Confirm(ctx, tx, calendarID, requesterID)
		return err
	})
	if err != nil {
		return models.Membership{}, err
	}

	s.publisher.PublishMemberConfirmed(ctx, calendarID, requesterID)
	return confirmed, nil
}

// RemoveMember removes userID from the calendar. Members may leave on their
// own; removing someone else requires admin rights.
func (s *calendarService) RemoveMember(ctx context.Context, requesterID, calendarID, userID uuid.UUID) (membership.Removal, error) {
	var removal membership.Removal
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := loadCalendar(ctx, tx, calendarID); err != nil {
			return err
		}
		if requesterID != userID {
			if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermAdmin); err != nil {
				return err
			}
		}
		var err error
		removal, err = s.registry.RemoveMember(ctx, tx, calendarID, userID)
		return err
	})
	if err != nil {
		return membership.Removal{}, err
	}

	s.publisher.PublishMemberRemoved(ctx, calendarID, userID, requesterID)
	if removal.CalendarDeleted {
		s.publisher.PublishCalendarDeleted(ctx, calendarID, requesterID)
	}
	return removal, nil
}

// ListEvents returns the events of a calendar
func (s *calendarService) ListEvents(ctx context.Context, requesterID, calendarID uuid.UUID) ([]*models.Event, error) {
	var list []*models.Event
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := loadCalendar(ctx, tx, calendarID); err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermView); err != nil {
			return err
		}
		var err error
		list, err = tx.Events.ListByCalendar(ctx, calendarID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// GetPreferences returns a copy of the calendar's preference matrix
func (s *calendarService) GetPreferences(ctx context.Context, requesterID, calendarID uuid.UUID) (preferences.Matrix, error) {
	var matrix preferences.Matrix
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		calendar, err := loadCalendar(ctx, tx, calendarID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermView); err != nil {
			return err
		}
		matrix = calendar.TimeslotPreferences.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matrix, nil
}

// ExportICS renders the calendar and its events as an iCalendar document
func (s *calendarService) ExportICS(ctx context.Context, requesterID, calendarID uuid.UUID) ([]byte, error) {
	var (
		calendar *models.Calendar
		list     []*models.Event
	)
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		var err error
		if calendar, err = loadCalendar(ctx, tx, calendarID); err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, s.registry, calendarID, requesterID, authz.PermView); err != nil {
			return err
		}
		list, err = tx.Events.ListByCalendar(ctx, calendarID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ics.Encode(calendar, list, time.Now())
}

// SweepOrphans deletes every calendar left without a confirmed member. Each
// calendar is re-checked and cascaded in its own transaction.
func (s *calendarService) SweepOrphans(ctx context.Context) (int, error) {
	var orphans []uuid.UUID
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		var err error
		orphans, err = tx.Calendars.ListOrphaned(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range orphans {
		removed := false
		err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
			count, err := tx.Members.CountConfirmed(ctx, id)
			if err != nil || count > 0 {
				return err
			}
			removed = true
			return repository.DeleteCalendarCascade(ctx, tx, id)
		})
		if err != nil {
			s.log.Error().Err(err).Str("calendar_id", id.String()).Msg("Failed to sweep orphaned calendar")
			continue
		}
		if removed {
			deleted++
			s.publisher.PublishCalendarDeleted(ctx, id, uuid.Nil)
		}
	}

	if deleted > 0 {
		s.log.Info().Int("count", deleted).Msg("Orphaned calendars deleted")
	}
	return deleted, nil
}
