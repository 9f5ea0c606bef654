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
	"github.com/samber/mo"
)

// MembershipRepository defines the interface for calendar membership data access
type MembershipRepository interface {
	Find(ctx context.Context, calendarID, userID uuid.UUID) (mo.Option[models.Membership], error)
	Insert(ctx context.Context, membership *models.Membership) error
	Confirm(ctx context.Context, calendarID, userID uuid.UUID) error
	Delete(ctx context.Context, calendarID, userID uuid.UUID) error
	DeleteByCalendar(ctx context.Context, calendarID uuid.UUID) error
	CountConfirmed(ctx context.Context, calendarID uuid.UUID) (int, error)
	ListByCalendar(ctx context.Context, calendarID uuid.UUID) ([]*models.MemberView, error)
}

type membershipRepository struct {
	db  DBTX
	log zerolog.Logger
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db DBTX, log zerolog.Logger) MembershipRepository {
	return &membershipRepository{
		db:  db,
		log: log,
	}
}

// Find returns the relation between a user and a calendar, if any
func (r *membershipRepository) Find(ctx context.Context, calendarID, userID uuid.UUID) (mo.Option[models.Membership], error) {
	var m models.Membership
	err := r.db.QueryRowContext(ctx, `
		SELECT calendar_id, user_id, role, confirmed, joined_at
		FROM calendar_members
		WHERE calendar_id = ? AND user_id = ?
	`, calendarID, userID).Scan(
		&m.CalendarID,
		&m.UserID,
		&m.Role,
		&m.Confirmed,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[models.Membership](), nil
		}
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Str("user_id", userID.String()).
			Msg("Failed to find calendar relation")
		return mo.None[models.Membership](), fmt.Errorf("failed to find calendar relation: %w", err)
	}

	return mo.Some(m), nil
}

// Insert adds a membership row
func (r *membershipRepository) Insert(ctx context.Context, m *models.Membership) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendar_members (calendar_id, user_id, role, confirmed, joined_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		m.CalendarID,
		m.UserID,
		m.Role,
		m.Confirmed,
		m.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.log.Debug().
				Str("calendar_id", m.CalendarID.String()).
				Str("user_id", m.UserID.String()).
				Msg("User already has a relation with the calendar")
			return ErrDuplicateMembership
		}
		r.log.Error().
			Err(err).
			Str("calendar_id", m.CalendarID.String()).
			Str("user_id", m.UserID.String()).
			Msg("Failed to add calendar member")
		return fmt.Errorf("failed to add calendar member: %w", err)
	}

	return nil
}

// Confirm marks a membership as confirmed
func (r *membershipRepository) Confirm(ctx context.Context, calendarID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE calendar_members SET confirmed = 1
		WHERE calendar_id = ? AND user_id = ?
	`, calendarID, userID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Str("user_id", userID.String()).
			Msg("Failed to confirm calendar member")
		return fmt.Errorf("failed to confirm calendar member: %w", err)
	}

	return r.expectRow(result, calendarID, userID)
}

// Delete removes the relation between a user and a calendar
func (r *membershipRepository) Delete(ctx context.Context, calendarID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM calendar_members
		WHERE calendar_id = ? AND user_id = ?
	`, calendarID, userID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Str("user_id", userID.String()).
			Msg("Failed to remove calendar member")
		return fmt.Errorf("failed to remove calendar member: %w", err)
	}

	return r.expectRow(result, calendarID, userID)
}

// DeleteByCalendar removes every membership row of a calendar
func (r *membershipRepository) DeleteByCalendar(ctx context.Context, calendarID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM calendar_members WHERE calendar_id = ?`, calendarID); err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Msg("Failed to delete calendar members")
		return fmt.Errorf("failed to delete calendar members: %w", err)
	}
	return nil
}

// CountConfirmed counts the members that own the calendar
func (r *membershipRepository) CountConfirmed(ctx context.Context, calendarID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM calendar_members
		WHERE calendar_id = ? AND confirmed = 1
	`, calendarID).Scan(&count)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Msg("Failed to count confirmed members")
		return 0, fmt.Errorf("failed to count confirmed members: %w", err)
	}
	return count, nil
}

// ListByCalendar returns the members of a calendar along with their pseudo
func (r *membershipRepository) ListByCalendar(ctx context.Context, calendarID uuid.UUID) ([]*models.MemberView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cm.calendar_id, cm.user_id, cm.role, cm.confirmed, cm.joined_at, u.pseudo
		FROM calendar_members cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.calendar_id = ?
		ORDER BY cm.joined_at, u.pseudo
	`, calendarID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Msg("Failed to query calendar members")
		return nil, fmt.Errorf("failed to query calendar members: %w", err)
	}
	defer rows.Close()

	var members []*models.MemberView
	for rows.Next() {
		var mv models.MemberView
		if err := rows.Scan(
			&mv.CalendarID,
			&mv.UserID,
			&mv.Role,
			&mv.Confirmed,
			&mv.JoinedAt,
			&mv.Pseudo,
		); err != nil {
			r.log.Error().
				Err(err).
				Str("calendar_id", calendarID.String()).
				Msg("Failed to scan calendar member")
			return nil, fmt.Errorf("failed to scan calendar member: %w", err)
		}
		members = append(members, &mv)
	}

	if err = rows.Err(); err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Msg("Error iterating over calendar members")
		return nil, fmt.Errorf("error iterating over calendar members: %w", err)
	}

	return members, nil
}

func (r *membershipRepository) expectRow(result sql.Result, calendarID, userID uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Str("user_id", userID.String()).
			Msg("Failed to get rows affected")
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}
