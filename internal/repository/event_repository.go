package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventRepository defines the interface for event data access
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	ListByCalendar(ctx context.Context, calendarID uuid.UUID) ([]*models.Event, error)
	ListIDsByCalendar(ctx context.Context, calendarID uuid.UUID) ([]uuid.UUID, error)
}

type eventRepository struct {
	db  DBTX
	log zerolog.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db DBTX, log zerolog.Logger) EventRepository {
	return &eventRepository{
		db:  db,
		log: log,
	}
}

const eventColumns = `id, calendar_id, name, description, location, type, visibility, start_time, end_time, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(s scanner, event *models.Event) error {
	return s.Scan(
		&event.ID,
		&event.CalendarID,
		&event.Name,
		&event.Description,
		&event.Location,
		&event.Type,
		&event.Visibility,
		&event.StartTime,
		&event.EndTime,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

// Create inserts a new event into the database
func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.CalendarID,
		event.Name,
		event.Description,
		event.Location,
		event.Type,
		event.Visibility,
		event.StartTime.UTC(),
		event.EndTime.UTC(),
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("event_id", event.ID.String()).
			Str("calendar_id", event.CalendarID.String()).
			Msg("Failed to create event")
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by its ID
func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	if err := scanEvent(row, &event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		r.log.Error().Err(err).Str("event_id", id.String()).Msg("Failed to get event by ID")
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

// Update overwrites the mutable fields of an event
func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET name = ?, description = ?, location = ?, type = ?, visibility = ?,
			start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?
	`,
		event.Name,
		event.Description,
		event.Location,
		event.Type,
		event.Visibility,
		event.StartTime.UTC(),
		event.EndTime.UTC(),
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		r.log.Error().Err(err).Str("event_id", event.ID.String()).Msg("Failed to update event")
		return fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// Delete removes an event; its attendees must already be gone
func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		r.log.Error().Err(err).Str("event_id", id.String()).Msg("Failed to delete event")
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// DeleteByIDs removes a set of events
func (r *eventRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query, args := inClause(`DELETE FROM events WHERE id IN `, ids)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.log.Error().Err(err).Int("count", len(ids)).Msg("Failed to delete events")
		return fmt.Errorf("failed to delete events: %w", err)
	}
	return nil
}

// ListByCalendar returns the events of a calendar ordered by start time
func (r *eventRepository) ListByCalendar(ctx context.Context, calendarID uuid.UUID) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE calendar_id = ?
		ORDER BY start_time
	`, calendarID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Msg("Failed to query calendar events")
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var event models.Event
		if err := scanEvent(rows, &event); err != nil {
			r.log.Error().
				Err(err).
				Str("calendar_id", calendarID.String()).
				Msg("Failed to scan event")
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over events: %w", err)
	}

	return events, nil
}

// ListIDsByCalendar collects the ids of every event under a calendar
func (r *eventRepository) ListIDsByCalendar(ctx context.Context, calendarID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM events WHERE calendar_id = ?`, calendarID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Msg("Failed to query calendar event ids")
		return nil, fmt.Errorf("failed to query calendar event ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// inClause renders "prefix(?, ?, ...)" for ids.
func inClause(prefix string, ids []uuid.UUID) (string, []interface{}) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return prefix + "(" + placeholders + ")", args
}
