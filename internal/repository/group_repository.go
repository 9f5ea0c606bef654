package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	FindByCalendarID(ctx context.Context, calendarID uuid.UUID) ([]*models.Group, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type groupRepository struct {
	db  DBTX
	log zerolog.Logger
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db DBTX, log zerolog.Logger) GroupRepository {
	return &groupRepository{
		db:  db,
		log: log,
	}
}

// Create inserts a group bound to a calendar
func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	group.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO groups (id, name, calendar_id, created_at)
		VALUES (?, ?, ?, ?)
	`, group.ID, group.Name, group.CalendarID, group.CreatedAt)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("group_id", group.ID.String()).
			Str("calendar_id", group.CalendarID.String()).
			Msg("Failed to create group")
		return fmt.Errorf("failed to create group: %w", err)
	}

	return nil
}

// FindByCalendarID returns the groups pointing at a calendar
func (r *groupRepository) FindByCalendarID(ctx context.Context, calendarID uuid.UUID) ([]*models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, calendar_id, created_at
		FROM groups
		WHERE calendar_id = ?
		ORDER BY created_at
	`, calendarID)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("calendar_id", calendarID.String()).
			Msg("Failed to query calendar groups")
		return nil, fmt.Errorf("failed to query calendar groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CalendarID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over groups: %w", err)
	}

	return groups, nil
}

// DeleteByID removes a group
func (r *groupRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		r.log.Error().Err(err).Str("group_id", id.String()).Msg("Failed to delete group")
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}
