package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CalendarRepository defines the interface for calendar data access
type CalendarRepository interface {
	Create(ctx context.Context, calendar *models.Calendar) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Calendar, error)
	Update(ctx context.Context, calendar *models.Calendar) error
	SetOwnerCount(ctx context.Context, id uuid.UUID, nbOwners int) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserCalendar, error)
	ListOrphaned(ctx context.Context) ([]uuid.UUID, error)
}

type calendarRepository struct {
	db  DBTX
	log zerolog.Logger
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db DBTX, log zerolog.Logger) CalendarRepository {
	return &calendarRepository{
		db:  db,
		log: log,
	}
}

// Create inserts a new calendar
func (r *calendarRepository) Create(ctx context.Context, calendar *models.Calendar) error {
	if calendar.ID == uuid.Nil {
		calendar.ID = uuid.New()
	}
	calendar.CreatedAt = time.Now().UTC()
	calendar.UpdatedAt = calendar.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendars (id, name, nb_owners, timeslot_preferences, sync_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		calendar.ID,
		calendar.Name,
		calendar.NbOwners,
		calendar.TimeslotPreferences,
		calendar.SyncToken,
		calendar.CreatedAt,
		calendar.UpdatedAt,
	)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendar.ID.String()).
			Msg("Failed to create calendar")
		return fmt.Errorf("failed to create calendar: %w", err)
	}

	return nil
}

// GetByID retrieves a calendar by its ID
func (r *calendarRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Calendar, error) {
	var calendar models.Calendar
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, nb_owners, timeslot_preferences, sync_token, created_at, updated_at
		FROM calendars
		WHERE id = ?
	`, id).Scan(
		&calendar.ID,
		&calendar.Name,
		&calendar.NbOwners,
		&calendar.TimeslotPreferences,
		&calendar.SyncToken,
		&calendar.CreatedAt,
		&calendar.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCalendarNotFound
		}
		r.log.Error().
			Err(err).
			Str("calendar_id", id.String()).
			Msg("Failed to get calendar by ID")
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}

	return &calendar, nil
}

// Update writes the name, preference matrix and sync token back
func (r *calendarRepository) Update(ctx context.Context, calendar *models.Calendar) error {
	calendar.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE calendars
		SET name = ?,
			timeslot_preferences = ?,
			sync_token = ?,
			updated_at = ?
		WHERE id = ?
	`,
		calendar.Name,
		calendar.TimeslotPreferences,
		calendar.SyncToken,
		calendar.UpdatedAt,
		calendar.ID,
	)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendar.ID.String()).
			Msg("Failed to update calendar")
		return fmt.Errorf("failed to update calendar: %w", err)
	}

	return r.expectRow(result, calendar.ID)
}

// SetOwnerCount stores a freshly computed confirmed-owner count
func (r *calendarRepository) SetOwnerCount(ctx context.Context, id uuid.UUID, nbOwners int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE calendars SET nb_owners = ?, updated_at = ? WHERE id = ?
	`, nbOwners, time.Now().UTC(), id)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", id.String()).
			Int("nb_owners", nbOwners).
			Msg("Failed to update owner count")
		return fmt.Errorf("failed to update owner count: %w", err)
	}

	return r.expectRow(result, id)
}

// Delete removes the calendar row only; dependents must already be gone
func (r *calendarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM calendars WHERE id = ?`, id)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", id.String()).
			Msg("Failed to delete calendar")
		return fmt.Errorf("failed to delete calendar: %w", err)
	}

	return r.expectRow(result, id)
}

// ListByUser returns every calendar the user has a relation with
func (r *calendarRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserCalendar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, cm.role, cm.confirmed
		FROM calendars c
		JOIN calendar_members cm ON c.id = cm.calendar_id
		WHERE cm.user_id = ?
		ORDER BY c.name
	`, userID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Msg("Failed to query user calendars")
		return nil, fmt.Errorf("failed to query user calendars: %w", err)
	}
	defer rows.Close()

	var calendars []*models.UserCalendar
	for rows.Next() {
		var uc models.UserCalendar
		if err := rows.Scan(&uc.CalendarID, &uc.CalendarName, &uc.Role, &uc.Confirmed); err != nil {
			r.log.Error().
				Err(err).
				Str("user_id", userID.String()).
				Msg("Failed to scan user calendar")
			return nil, fmt.Errorf("failed to scan user calendar: %w", err)
		}
		calendars = append(calendars, &uc)
	}

	if err = rows.Err(); err != nil {
		r.log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Msg("Error iterating over user calendars")
		return nil, fmt.Errorf("error iterating over user calendars: %w", err)
	}

	return calendars, nil
}

// ListOrphaned returns calendars that have no confirmed member left
func (r *calendarRepository) ListOrphaned(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id
		FROM calendars c
		WHERE NOT EXISTS (
			SELECT 1 FROM calendar_members cm
			WHERE cm.calendar_id = c.id AND cm.confirmed = 1
		)
	`)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query orphaned calendars")
		return nil, fmt.Errorf("failed to query orphaned calendars: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan orphaned calendar")
			return nil, fmt.Errorf("failed to scan orphaned calendar: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *calendarRepository) expectRow(result sql.Result, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", id.String()).
			Msg("Failed to get rows affected")
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCalendarNotFound
	}
	return nil
}
