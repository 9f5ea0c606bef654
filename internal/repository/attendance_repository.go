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

// AttendanceRepository defines the interface for event attendee data access
type AttendanceRepository interface {
	Insert(ctx context.Context, attendance *models.Attendance) error
	Get(ctx context.Context, eventID, userID uuid.UUID) (*models.Attendance, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Attendance, error)
	UpdateStatus(ctx context.Context, eventID, userID uuid.UUID, status models.AttendanceStatus) error
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
	DeleteByEvents(ctx context.Context, eventIDs []uuid.UUID) error
}

type attendanceRepository struct {
	db  DBTX
	log zerolog.Logger
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db DBTX, log zerolog.Logger) AttendanceRepository {
	return &attendanceRepository{
		db:  db,
		log: log,
	}
}

// Insert lists a user as an attendee of an event
func (r *attendanceRepository) Insert(ctx context.Context, a *models.Attendance) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_attendees (event_id, user_id, status, created_at, responded_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		a.EventID,
		a.UserID,
		a.Status,
		a.CreatedAt,
		a.RespondedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAttendance
		}
		r.log.Error().
			Err(err).
			Str("event_id", a.EventID.String()).
			Str("user_id", a.UserID.String()).
			Msg("Failed to add event attendee")
		return fmt.Errorf("failed to add event attendee: %w", err)
	}

	return nil
}

// Get returns the attendance row of one user
func (r *attendanceRepository) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.Attendance, error) {
	var a models.Attendance
	err := r.db.QueryRowContext(ctx, `
		SELECT ea.event_id, ea.user_id, u.pseudo, ea.status, ea.created_at, ea.responded_at
		FROM event_attendees ea
		JOIN users u ON u.id = ea.user_id
		WHERE ea.event_id = ? AND ea.user_id = ?
	`, eventID, userID).Scan(
		&a.EventID,
		&a.UserID,
		&a.Pseudo,
		&a.Status,
		&a.CreatedAt,
		&a.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttendanceNotFound
		}
		r.log.Error().
			Err(err).
			Str("event_id", eventID.String()).
			Str("user_id", userID.String()).
			Msg("Failed to get event attendee")
		return nil, fmt.Errorf("failed to get event attendee: %w", err)
	}

	return &a, nil
}

// ListByEvent returns every attendee of an event in invitation order
func (r *attendanceRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ea.event_id, ea.user_id, u.pseudo, ea.status, ea.created_at, ea.responded_at
		FROM event_attendees ea
		JOIN users u ON u.id = ea.user_id
		WHERE ea.event_id = ?
		ORDER BY ea.created_at, u.pseudo
	`, eventID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("event_id", eventID.String()).
			Msg("Failed to query event attendees")
		return nil, fmt.Errorf("failed to query event attendees: %w", err)
	}
	defer rows.Close()

	var attendees []*models.Attendance
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(
			&a.EventID,
			&a.UserID,
			&a.Pseudo,
			&a.Status,
			&a.CreatedAt,
			&a.RespondedAt,
		); err != nil {
			r.log.Error().
				Err(err).
				Str("event_id", eventID.String()).
				Msg("Failed to scan event attendee")
			return nil, fmt.Errorf("failed to scan event attendee: %w", err)
		}
		attendees = append(attendees, &a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over event attendees: %w", err)
	}

	return attendees, nil
}

// UpdateStatus records a user's answer to an invitation
func (r *attendanceRepository) UpdateStatus(ctx context.Context, eventID, userID uuid.UUID, status models.AttendanceStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE event_attendees SET status = ?, responded_at = ?
		WHERE event_id = ? AND user_id = ?
	`, status, time.Now().UTC(), eventID, userID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("event_id", eventID.String()).
			Str("user_id", userID.String()).
			Str("status", status.String()).
			Msg("Failed to update attendance status")
		return fmt.Errorf("failed to update attendance status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAttendanceNotFound
	}

	return nil
}

// DeleteByEvent removes every attendee of an event
func (r *attendanceRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ?`, eventID); err != nil {
		r.log.Error().
			Err(err).
			Str("event_id", eventID.String()).
			Msg("Failed to delete event attendees")
		return fmt.Errorf("failed to delete event attendees: %w", err)
	}
	return nil
}

// DeleteByEvents removes the attendees of a set of events
func (r *attendanceRepository) DeleteByEvents(ctx context.Context, eventIDs []uuid.UUID) error {
	if len(eventIDs) == 0 {
		return nil
	}

	query, args := inClause(`DELETE FROM event_attendees WHERE event_id IN `, eventIDs)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.log.Error().Err(err).Int("count", len(eventIDs)).Msg("Failed to delete event attendees")
		return fmt.Errorf("failed to delete event attendees: %w", err)
	}
	return nil
}
